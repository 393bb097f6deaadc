package feed

import (
	"testing"
	"time"

	"tickfeed/internal/domain"
)

func TestSubscribeRejectsUntrackedSymbol(t *testing.T) {
	c := New()
	_, err := c.Subscribe("doge", func(domain.Tick) {})
	if !IsCode(err, CodeInvalidSymbol) {
		t.Errorf("err = %v, want code %s", err, CodeInvalidSymbol)
	}
}

func TestSubscribeRejectsNilHandler(t *testing.T) {
	c := New()
	_, err := c.Subscribe("btc", nil)
	if !IsCode(err, CodeInvalidArgument) {
		t.Errorf("err = %v, want code %s", err, CodeInvalidArgument)
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	c := New()
	unsub, err := c.Subscribe("btc", func(domain.Tick) {})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	unsub()
	unsub() // must not panic or remove someone else's subscription

	c.mu.RLock()
	n := c.subs.count("btc")
	c.mu.RUnlock()
	if n != 0 {
		t.Errorf("subscribers = %d, want 0", n)
	}
}

func TestUnsubscribeRemovesExactlyOneSubscription(t *testing.T) {
	c := New()
	unsub1, _ := c.Subscribe("btc", func(domain.Tick) {})
	_, err := c.Subscribe("btc", func(domain.Tick) {})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	unsub1()

	c.mu.RLock()
	n := c.subs.count("btc")
	c.mu.RUnlock()
	if n != 1 {
		t.Errorf("subscribers = %d, want 1", n)
	}
}

func TestCurrentPriceUnknownSymbol(t *testing.T) {
	c := New()
	if _, err := c.CurrentPrice("doge", domain.TopicComposite); !IsCode(err, CodeInvalidSymbol) {
		t.Errorf("err = %v, want code %s", err, CodeInvalidSymbol)
	}
}

func TestCurrentPriceNoDataYet(t *testing.T) {
	c := New()
	v, err := c.CurrentPrice("btc", domain.TopicComposite)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if v != nil {
		t.Errorf("view = %+v, want nil before any tick", v)
	}
}

func TestInitializeRejectsBadConfigSynchronously(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		code string
	}{
		{"http scheme", Config{EndpointURL: "https://live-data.tickfeed.io/ws"}, CodeBadScheme},
		{"garbage url", Config{EndpointURL: "ws://bad url/%"}, CodeInvalidURL},
		{"host off allowlist", Config{EndpointURL: "wss://evil.example.com/ws"}, CodeHostNotAllowed},
		{"unsupported symbol", Config{Symbols: []string{"btc", "doge"}}, CodeInvalidSymbol},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := New()
			err := c.Initialize(tc.cfg)
			if !IsCode(err, tc.code) {
				t.Errorf("err = %v, want code %s", err, tc.code)
			}
			if st := c.State(); st.Initialized {
				t.Error("client initialized despite config error")
			}
		})
	}
}

func TestShutdownBeforeInitializeIsNoop(t *testing.T) {
	c := New()
	c.Shutdown()
	c.Shutdown()

	st := c.State()
	if st.Initialized {
		t.Error("initialized after shutdown")
	}
	if st.ConnectionState != domain.StateDisconnected {
		t.Errorf("state = %s, want disconnected", st.ConnectionState)
	}
}

func TestShutdownClearsEverything(t *testing.T) {
	c := New()
	c.initialized = true
	c.stats.TicksReceived = 7
	if _, err := c.Subscribe("btc", func(domain.Tick) {}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	c.handleMessage([]byte(`{"topic":"crypto_prices","payload":{"symbol":"BTCUSDT","price":100}}`))

	c.Shutdown()
	c.Shutdown() // second call must be a no-op, not a panic

	st := c.State()
	if st.Initialized {
		t.Error("initialized = true after shutdown")
	}
	if st.ConnectionState != domain.StateDisconnected {
		t.Errorf("state = %s, want disconnected", st.ConnectionState)
	}
	if len(st.Prices) != 0 {
		t.Errorf("prices survived shutdown: %v", st.Prices)
	}
	if st.Stats != (domain.Stats{}) {
		t.Errorf("stats not reset: %+v", st.Stats)
	}
	c.mu.RLock()
	n := c.subs.count("btc")
	c.mu.RUnlock()
	if n != 0 {
		t.Errorf("subscribers = %d, want 0 after shutdown", n)
	}
}

func TestStateReturnsDeepSnapshot(t *testing.T) {
	c := New()
	c.initialized = true
	c.handleMessage([]byte(`{"topic":"crypto_prices","payload":{"symbol":"BTCUSDT","price":100}}`))

	st := c.State()
	st.Prices["btc"][domain.TopicComposite] = domain.PriceView{Price: -1}
	st.Stats.TicksReceived = 999

	fresh := c.State()
	if fresh.Prices["btc"][domain.TopicComposite].Price != 100 {
		t.Error("mutating a snapshot leaked into client state")
	}
	if fresh.Stats.TicksReceived != 1 {
		t.Errorf("ticks_received = %d, want 1", fresh.Stats.TicksReceived)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.EndpointURL != DefaultEndpoint {
		t.Errorf("endpoint = %q", cfg.EndpointURL)
	}
	if cfg.InitialReconnectDelay != time.Second || cfg.MaxReconnectDelay != 30*time.Second {
		t.Errorf("reconnect delays = %v/%v", cfg.InitialReconnectDelay, cfg.MaxReconnectDelay)
	}
	if cfg.MaxMessageBytes != 1<<20 {
		t.Errorf("max message bytes = %d", cfg.MaxMessageBytes)
	}
	if len(cfg.Symbols) != 4 {
		t.Errorf("symbols = %v", cfg.Symbols)
	}
}

func TestNormalizeSymbolsDeduplicates(t *testing.T) {
	got := normalizeSymbols([]string{" BTC ", "btc", "", "Eth"})
	if len(got) != 2 || got[0] != "btc" || got[1] != "eth" {
		t.Errorf("normalizeSymbols = %v", got)
	}
}
