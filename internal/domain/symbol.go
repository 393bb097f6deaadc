package domain

import "strings"

// Topic is a named channel multiplexed over the single feed connection.
type Topic string

const (
	// TopicComposite carries the exchange-composite price used for display.
	TopicComposite Topic = "composite"
	// TopicOracle carries the oracle price used for settlement.
	TopicOracle Topic = "oracle"
)

// wire topic names as the upstream feed spells them
const (
	WireTopicComposite = "crypto_prices"
	WireTopicOracle    = "oracle_prices"
)

// Topics lists every topic in a stable order.
func Topics() []Topic {
	return []Topic{TopicComposite, TopicOracle}
}

// WireTopic returns the upstream spelling of a topic.
func WireTopic(t Topic) string {
	if t == TopicOracle {
		return WireTopicOracle
	}
	return WireTopicComposite
}

// TopicFromWire maps an upstream topic name back to a Topic.
func TopicFromWire(raw string) (Topic, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case WireTopicComposite:
		return TopicComposite, true
	case WireTopicOracle:
		return TopicOracle, true
	}
	return "", false
}

// DefaultSymbols is the tracked instrument set.
var DefaultSymbols = []string{"btc", "eth", "sol", "xrp"}

// wireSymbols maps topic -> normalized symbol -> upstream identifier.
// The composite topic speaks exchange pairs, the oracle topic speaks
// oracle product ids.
var wireSymbols = map[Topic]map[string]string{
	TopicComposite: {
		"btc": "BTCUSDT",
		"eth": "ETHUSDT",
		"sol": "SOLUSDT",
		"xrp": "XRPUSDT",
	},
	TopicOracle: {
		"btc": "Crypto.BTC/USD",
		"eth": "Crypto.ETH/USD",
		"sol": "Crypto.SOL/USD",
		"xrp": "Crypto.XRP/USD",
	},
}

// reverse lookup table, lowercased wire spelling -> normalized symbol
var normalizedSymbols = func() map[string]string {
	m := make(map[string]string)
	for _, bySymbol := range wireSymbols {
		for symbol, wire := range bySymbol {
			m[strings.ToLower(wire)] = symbol
		}
	}
	return m
}()

// WireSymbol returns the upstream identifier for a symbol on a topic,
// or "" when either is unknown.
func WireSymbol(t Topic, symbol string) string {
	return wireSymbols[t][strings.ToLower(strings.TrimSpace(symbol))]
}

// NormalizedSymbol maps any known wire spelling, case-insensitively,
// back to its normalized symbol.
func NormalizedSymbol(raw string) (string, bool) {
	s, ok := normalizedSymbols[strings.ToLower(strings.TrimSpace(raw))]
	return s, ok
}
