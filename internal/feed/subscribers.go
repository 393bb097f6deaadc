package feed

import (
	"github.com/rs/zerolog/log"

	"tickfeed/internal/domain"
)

// TickHandler receives every accepted tick for a subscribed symbol.
type TickHandler func(domain.Tick)

// subscriberRegistry maps symbols to opaque handler ids so removal during
// iteration is safe. Not concurrency-safe on its own; the client serializes
// access and fans out on a snapshot taken under its lock.
type subscriberRegistry struct {
	nextID   int
	bySymbol map[string]map[int]TickHandler
}

func newSubscriberRegistry() *subscriberRegistry {
	return &subscriberRegistry{bySymbol: make(map[string]map[int]TickHandler)}
}

func (r *subscriberRegistry) add(symbol string, h TickHandler) int {
	r.nextID++
	id := r.nextID
	if r.bySymbol[symbol] == nil {
		r.bySymbol[symbol] = make(map[int]TickHandler)
	}
	r.bySymbol[symbol][id] = h
	return id
}

// remove is idempotent: deleting an id twice is a no-op.
func (r *subscriberRegistry) remove(symbol string, id int) {
	delete(r.bySymbol[symbol], id)
}

func (r *subscriberRegistry) snapshot(symbol string) []TickHandler {
	subs := r.bySymbol[symbol]
	if len(subs) == 0 {
		return nil
	}
	out := make([]TickHandler, 0, len(subs))
	for _, h := range subs {
		out = append(out, h)
	}
	return out
}

func (r *subscriberRegistry) count(symbol string) int {
	return len(r.bySymbol[symbol])
}

func (r *subscriberRegistry) clear() {
	r.bySymbol = make(map[string]map[int]TickHandler)
}

// fanOut delivers one tick to every handler in the snapshot. A panicking
// handler is logged once and must not deafen the remaining handlers.
func fanOut(tick domain.Tick, handlers []TickHandler) {
	for _, h := range handlers {
		invoke(tick, h)
	}
}

func invoke(tick domain.Tick, h TickHandler) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Str("symbol", tick.Symbol).
				Str("topic", string(tick.Topic)).
				Interface("panic", rec).
				Msg("subscriber callback panicked")
		}
	}()
	h(tick)
}
