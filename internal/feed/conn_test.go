package feed

import (
	"testing"
	"time"

	"tickfeed/internal/domain"
)

func TestBackoffDelay(t *testing.T) {
	initial := time.Second
	max := 30 * time.Second

	cases := []struct {
		attempts int
		want     time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second}, // 32s capped
		{10, 30 * time.Second},
		{63, 30 * time.Second}, // shift overflow territory
		{100, 30 * time.Second},
	}
	for _, tc := range cases {
		if got := backoffDelay(initial, max, tc.attempts); got != tc.want {
			t.Errorf("backoffDelay(attempt=%d) = %v, want %v", tc.attempts, got, tc.want)
		}
	}
}

func TestStaleMonitorThrottlesRepeatWarnings(t *testing.T) {
	m := newStaleMonitor(10*time.Second, 30*time.Second)
	key := domain.PriceKey{Symbol: "btc", Topic: domain.TopicComposite}
	t0 := time.Now()

	if m.check(key, 5*time.Second, t0) {
		t.Error("warned below threshold")
	}
	if !m.check(key, 15*time.Second, t0) {
		t.Error("no warning on first detection")
	}
	if m.check(key, 20*time.Second, t0.Add(10*time.Second)) {
		t.Error("warned again inside repeat interval")
	}
	if !m.check(key, 50*time.Second, t0.Add(31*time.Second)) {
		t.Error("no warning after repeat interval elapsed")
	}

	// independent keys warn independently
	other := domain.PriceKey{Symbol: "btc", Topic: domain.TopicOracle}
	if !m.check(other, 15*time.Second, t0.Add(10*time.Second)) {
		t.Error("second key throttled by first key's warning")
	}
}

func TestBuildSubscribeRequestCoversEveryTopicSymbolPair(t *testing.T) {
	symbols := []string{"btc", "eth"}
	req := buildSubscribeRequest(symbols)

	if req.Type != "subscribe" {
		t.Errorf("type = %q, want subscribe", req.Type)
	}
	want := len(symbols) * len(domain.Topics())
	if len(req.Subscriptions) != want {
		t.Fatalf("subscriptions = %d, want %d", len(req.Subscriptions), want)
	}
	seen := map[string]bool{}
	for _, sub := range req.Subscriptions {
		if sub.Filter["symbol"] == "" {
			t.Errorf("subscription on %s has empty filter", sub.Topic)
		}
		seen[sub.Topic+"/"+sub.Filter["symbol"]] = true
	}
	if !seen[domain.WireTopicComposite+"/BTCUSDT"] || !seen[domain.WireTopicOracle+"/Crypto.ETH/USD"] {
		t.Errorf("missing expected subscription entries: %v", seen)
	}
}
