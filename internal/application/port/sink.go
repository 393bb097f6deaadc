package port

import (
	"context"

	"tickfeed/internal/domain"
)

// TickSink receives every accepted tick. Implementations must be safe for
// calls from the feed's notification path and should not block for long.
type TickSink interface {
	WriteTick(ctx context.Context, tick domain.Tick) error
	Close() error
}

// Journal persists ticks and serves the last known price per key.
type Journal interface {
	InsertTick(ctx context.Context, tick domain.Tick) error
	LatestPrice(ctx context.Context, symbol string, topic domain.Topic) (*domain.PriceView, error)
	Close() error
}
