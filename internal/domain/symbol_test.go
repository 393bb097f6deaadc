package domain

import "testing"

func TestWireSymbol(t *testing.T) {
	if got := WireSymbol(TopicComposite, "btc"); got != "BTCUSDT" {
		t.Errorf("composite btc = %q", got)
	}
	if got := WireSymbol(TopicOracle, " ETH "); got != "Crypto.ETH/USD" {
		t.Errorf("oracle eth = %q", got)
	}
	if got := WireSymbol(TopicComposite, "doge"); got != "" {
		t.Errorf("unknown symbol = %q, want empty", got)
	}
}

func TestNormalizedSymbolIsCaseInsensitive(t *testing.T) {
	cases := map[string]string{
		"BTCUSDT":        "btc",
		"btcusdt":        "btc",
		"BtcUsdt":        "btc",
		"Crypto.XRP/USD": "xrp",
		"crypto.xrp/usd": "xrp",
		" SOLUSDT ":      "sol",
	}
	for raw, want := range cases {
		got, ok := NormalizedSymbol(raw)
		if !ok || got != want {
			t.Errorf("NormalizedSymbol(%q) = %q,%v; want %q", raw, got, ok, want)
		}
	}
	if _, ok := NormalizedSymbol("DOGEUSDT"); ok {
		t.Error("unknown wire symbol resolved")
	}
}

func TestTopicFromWire(t *testing.T) {
	if topic, ok := TopicFromWire("crypto_prices"); !ok || topic != TopicComposite {
		t.Errorf("crypto_prices = %v,%v", topic, ok)
	}
	if topic, ok := TopicFromWire(" ORACLE_PRICES "); !ok || topic != TopicOracle {
		t.Errorf("oracle_prices = %v,%v", topic, ok)
	}
	if _, ok := TopicFromWire("orderbook"); ok {
		t.Error("unknown topic resolved")
	}
}
