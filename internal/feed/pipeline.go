package feed

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"tickfeed/internal/domain"
)

// unrecognized frames are logged verbosely for the first few occurrences,
// then sampled, so sustained garbage input cannot flood the log.
const (
	unrecognizedLogFirst = 5
	unrecognizedLogEvery = 100
)

type envelope struct {
	Topic   string            `json:"topic"`
	Type    string            `json:"type"`
	Payload json.RawMessage   `json:"payload"`
	Prices  []json.RawMessage `json:"prices"`
	Message string            `json:"message"`
}

// handleMessage is the single entry point for raw frames. The byte-size
// guard runs before any parsing so an oversized frame costs nothing but its
// length check.
func (c *Client) handleMessage(raw []byte) {
	c.mu.Lock()
	if len(raw) > c.cfg.MaxMessageBytes {
		c.stats.Errors++
		c.mu.Unlock()
		log.Warn().
			Int("bytes", len(raw)).
			Int("max_bytes", c.cfg.MaxMessageBytes).
			Msg("oversized feed message dropped")
		return
	}
	c.stats.MessagesReceived++
	c.mu.Unlock()

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.countError()
		log.Warn().Err(err).Msg("unparsable feed message dropped")
		return
	}

	switch {
	case env.Type == "error":
		c.countError()
		log.Warn().Str("message", env.Message).Msg("feed reported an error")
	case env.Payload != nil:
		c.handleRecords(env.Topic, []json.RawMessage{env.Payload})
	case len(env.Prices) > 0:
		// legacy multi-record shape, still sent by older feed versions
		c.handleRecords(env.Topic, env.Prices)
	default:
		c.countUnrecognized(raw)
	}
}

func (c *Client) handleRecords(wireTopic string, records []json.RawMessage) {
	topic, ok := domain.TopicFromWire(wireTopic)
	if !ok {
		c.countUnrecognized([]byte(wireTopic))
		return
	}
	for _, rec := range records {
		var record map[string]any
		if err := json.Unmarshal(rec, &record); err != nil {
			c.countError()
			continue
		}
		tick, ok := c.norm.normalize(record, topic)
		if !ok {
			c.countError()
			continue
		}
		c.acceptTick(tick)
	}
}

// acceptTick stores the tick and fans it out to the symbol's subscribers.
// Fan-out runs outside the lock on a snapshot of the handler set, so a
// handler may subscribe, unsubscribe or read prices without deadlocking,
// and a panicking handler cannot block the others.
func (c *Client) acceptTick(tick domain.Tick) {
	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return
	}
	if !c.store.update(tick.Symbol, tick.Topic, tick.Price, tick.Timestamp) {
		c.stats.StaleDrops++
		c.mu.Unlock()
		return
	}
	c.stats.TicksReceived++
	c.stats.LastTickAt = c.now()
	handlers := c.subs.snapshot(tick.Symbol)
	c.mu.Unlock()

	fanOut(tick, handlers)
}

func (c *Client) countError() {
	c.mu.Lock()
	c.stats.Errors++
	c.mu.Unlock()
}

func (c *Client) countUnrecognized(raw []byte) {
	c.mu.Lock()
	c.stats.Unrecognized++
	n := c.stats.Unrecognized
	c.mu.Unlock()

	if n <= unrecognizedLogFirst {
		preview := raw
		if len(preview) > 256 {
			preview = preview[:256]
		}
		log.Warn().Bytes("frame", preview).Msg("unrecognized feed message")
	} else if n%unrecognizedLogEvery == 0 {
		log.Warn().Int64("total", n).Msg("unrecognized feed messages continue")
	}
}
