package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"tickfeed/internal/application/port"
	"tickfeed/internal/domain"
)

type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS ticks (
  id BIGSERIAL PRIMARY KEY,
  symbol TEXT NOT NULL,
  topic TEXT NOT NULL,
  price DOUBLE PRECISION NOT NULL,
  ts_ms BIGINT NOT NULL,
  created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ticks_key_ts ON ticks(symbol, topic, ts_ms);

CREATE TABLE IF NOT EXISTS latest_prices (
  symbol TEXT NOT NULL,
  topic TEXT NOT NULL,
  price DOUBLE PRECISION NOT NULL,
  ts_ms BIGINT NOT NULL,
  updated_at BIGINT NOT NULL,
  PRIMARY KEY (symbol, topic)
);
`)
	return err
}

func (r *Repo) InsertTick(ctx context.Context, tick domain.Tick) error {
	now := time.Now().UnixMilli()
	tsMS := tick.Timestamp.UnixMilli()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ticks(symbol, topic, price, ts_ms, created_at) VALUES($1, $2, $3, $4, $5)`,
		tick.Symbol, string(tick.Topic), tick.Price, tsMS, now,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO latest_prices(symbol, topic, price, ts_ms, updated_at) VALUES($1, $2, $3, $4, $5)
		 ON CONFLICT (symbol, topic) DO UPDATE SET price=excluded.price, ts_ms=excluded.ts_ms, updated_at=excluded.updated_at`,
		tick.Symbol, string(tick.Topic), tick.Price, tsMS, now,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Repo) LatestPrice(ctx context.Context, symbol string, topic domain.Topic) (*domain.PriceView, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT price, ts_ms FROM latest_prices WHERE symbol = $1 AND topic = $2`,
		symbol, string(topic),
	)
	var price float64
	var tsMS int64
	if err := row.Scan(&price, &tsMS); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	ts := time.UnixMilli(tsMS)
	return &domain.PriceView{
		Price:       price,
		Timestamp:   ts,
		StalenessMS: time.Since(ts).Milliseconds(),
	}, nil
}

var _ port.Journal = (*Repo)(nil)
