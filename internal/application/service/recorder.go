package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"tickfeed/internal/application/port"
	"tickfeed/internal/domain"
	"tickfeed/internal/feed"
)

const sinkWriteTimeout = 2 * time.Second

// Recorder is a downstream consumer of the price client: it subscribes to
// every tracked symbol and forwards accepted ticks to the configured sinks
// (journal, cache, bus). Each sink is best-effort; a failing sink is logged
// and never interrupts the feed or the other sinks.
type Recorder struct {
	journal port.Journal
	sinks   []port.TickSink
	unsubs  []func()
}

func NewRecorder(journal port.Journal, sinks ...port.TickSink) *Recorder {
	return &Recorder{journal: journal, sinks: sinks}
}

// Start subscribes the recorder to the client. Must be paired with Stop.
func (r *Recorder) Start(client *feed.Client) error {
	for _, symbol := range client.Symbols() {
		unsub, err := client.Subscribe(symbol, r.record)
		if err != nil {
			r.Stop()
			return err
		}
		r.unsubs = append(r.unsubs, unsub)
	}
	return nil
}

// Stop detaches from the client. Sinks are not closed here; their lifetime
// belongs to the caller that opened them.
func (r *Recorder) Stop() {
	for _, unsub := range r.unsubs {
		unsub()
	}
	r.unsubs = nil
}

func (r *Recorder) record(tick domain.Tick) {
	ctx, cancel := context.WithTimeout(context.Background(), sinkWriteTimeout)
	defer cancel()

	if r.journal != nil {
		if err := r.journal.InsertTick(ctx, tick); err != nil {
			log.Error().Err(err).Str("symbol", tick.Symbol).Msg("journal write failed")
		}
	}
	for _, sink := range r.sinks {
		if err := sink.WriteTick(ctx, tick); err != nil {
			log.Error().Err(err).Str("symbol", tick.Symbol).Msg("tick sink write failed")
		}
	}
}
