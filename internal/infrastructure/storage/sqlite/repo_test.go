package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tickfeed/internal/domain"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "ticks.db"))
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteInsertAndLatest(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ts := time.UnixMilli(1700000000000)
	tick := domain.Tick{Symbol: "btc", Topic: domain.TopicComposite, Price: 95234.50, Timestamp: ts}
	if err := repo.InsertTick(ctx, tick); err != nil {
		t.Fatalf("InsertTick failed: %v", err)
	}

	v, err := repo.LatestPrice(ctx, "btc", domain.TopicComposite)
	if err != nil {
		t.Fatalf("LatestPrice failed: %v", err)
	}
	if v == nil || v.Price != 95234.50 {
		t.Fatalf("view = %+v, want price 95234.50", v)
	}
	if !v.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", v.Timestamp, ts)
	}
}

func TestSQLiteLatestIsUpserted(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.UnixMilli(1700000000000)
	for i, price := range []float64{100, 101, 102} {
		tick := domain.Tick{
			Symbol:    "eth",
			Topic:     domain.TopicOracle,
			Price:     price,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.InsertTick(ctx, tick); err != nil {
			t.Fatalf("InsertTick failed: %v", err)
		}
	}

	v, err := repo.LatestPrice(ctx, "eth", domain.TopicOracle)
	if err != nil {
		t.Fatalf("LatestPrice failed: %v", err)
	}
	if v == nil || v.Price != 102 {
		t.Fatalf("view = %+v, want latest price 102", v)
	}
}

func TestSQLiteLatestMissingKey(t *testing.T) {
	repo := newTestRepo(t)

	v, err := repo.LatestPrice(context.Background(), "btc", domain.TopicOracle)
	if err != nil {
		t.Fatalf("LatestPrice failed: %v", err)
	}
	if v != nil {
		t.Errorf("view = %+v, want nil for missing key", v)
	}
}
