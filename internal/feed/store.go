package feed

import (
	"time"

	"tickfeed/internal/domain"
)

type priceEntry struct {
	price     float64
	timestamp time.Time
}

// priceStore is the in-memory last-known-good table keyed by
// (symbol, topic). Not safe for concurrent use; the client serializes
// access.
type priceStore struct {
	entries   map[domain.PriceKey]priceEntry
	monotonic bool
}

func newPriceStore(monotonic bool) *priceStore {
	return &priceStore{
		entries:   make(map[domain.PriceKey]priceEntry),
		monotonic: monotonic,
	}
}

// update upserts the entry and reports whether it was stored. With the
// monotonic policy on, a tick older than the stored timestamp is dropped;
// otherwise every valid tick wins, even a late-arriving one.
func (s *priceStore) update(symbol string, topic domain.Topic, price float64, ts time.Time) bool {
	key := domain.PriceKey{Symbol: symbol, Topic: topic}
	if s.monotonic {
		if cur, ok := s.entries[key]; ok && ts.Before(cur.timestamp) {
			return false
		}
	}
	s.entries[key] = priceEntry{price: price, timestamp: ts}
	return true
}

func (s *priceStore) view(symbol string, topic domain.Topic, now time.Time) (domain.PriceView, bool) {
	e, ok := s.entries[domain.PriceKey{Symbol: symbol, Topic: topic}]
	if !ok {
		return domain.PriceView{}, false
	}
	return domain.PriceView{
		Price:       e.price,
		Timestamp:   e.timestamp,
		StalenessMS: now.Sub(e.timestamp).Milliseconds(),
	}, true
}

func (s *priceStore) views(symbol string, now time.Time) map[domain.Topic]domain.PriceView {
	var out map[domain.Topic]domain.PriceView
	for _, topic := range domain.Topics() {
		if v, ok := s.view(symbol, topic, now); ok {
			if out == nil {
				out = make(map[domain.Topic]domain.PriceView)
			}
			out[topic] = v
		}
	}
	return out
}

func (s *priceStore) snapshot(now time.Time) map[string]map[domain.Topic]domain.PriceView {
	out := make(map[string]map[domain.Topic]domain.PriceView)
	for key := range s.entries {
		if _, ok := out[key.Symbol]; ok {
			continue
		}
		if views := s.views(key.Symbol, now); views != nil {
			out[key.Symbol] = views
		}
	}
	return out
}

func (s *priceStore) timestamps() map[domain.PriceKey]time.Time {
	out := make(map[domain.PriceKey]time.Time, len(s.entries))
	for key, e := range s.entries {
		out[key] = e.timestamp
	}
	return out
}

func (s *priceStore) clear() {
	s.entries = make(map[domain.PriceKey]priceEntry)
}
