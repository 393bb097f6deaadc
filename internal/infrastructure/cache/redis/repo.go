package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tickfeed/internal/application/port"
	"tickfeed/internal/domain"
)

// Repo mirrors the latest price per (topic, symbol) into a Redis hash so
// out-of-process consumers can read it without touching the feed.
type Repo struct {
	rdb       *redis.Client
	ttl       time.Duration
	keyLatest string // prefix + ":latest"
}

type latestPrice struct {
	Symbol string  `json:"symbol"`
	Topic  string  `json:"topic"`
	Price  float64 `json:"price"`
	TsMS   int64   `json:"ts_ms"`
}

func New(rdb *redis.Client, prefix string, ttl time.Duration) *Repo {
	return &Repo{
		rdb:       rdb,
		ttl:       ttl,
		keyLatest: prefix + ":latest",
	}
}

func (r *Repo) WriteTick(ctx context.Context, tick domain.Tick) error {
	lp := latestPrice{
		Symbol: tick.Symbol,
		Topic:  string(tick.Topic),
		Price:  tick.Price,
		TsMS:   tick.Timestamp.UnixMilli(),
	}
	b, _ := json.Marshal(lp)

	// Hash: field = "composite:btc" -> json
	field := fmt.Sprintf("%s:%s", tick.Topic, tick.Symbol)
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, r.keyLatest, field, string(b))
	if r.ttl > 0 {
		pipe.Expire(ctx, r.keyLatest, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Repo) Close() error { return r.rdb.Close() }

var _ port.TickSink = (*Repo)(nil)
