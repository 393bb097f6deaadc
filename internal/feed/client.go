// Package feed implements the resilient streaming price client: one
// persistent websocket connection multiplexing composite and oracle price
// topics, normalized into ticks and fanned out to in-process subscribers.
//
// All mutable state is serialized through one mutex; frames are read and
// processed in arrival order by a single goroutine per connection, and
// subscriber notification for a tick completes before the next frame is
// processed. Fan-out runs on a snapshot of the handler set outside the
// lock, so handlers may call back into the client.
package feed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"tickfeed/internal/domain"
)

// Client is the facade every other module depends on. The zero value is not
// usable; construct with New.
type Client struct {
	mu sync.RWMutex

	cfg         Config
	initialized bool

	state    domain.ConnectionState
	conn     *websocket.Conn
	epoch    int
	attempts int

	reconnectTimer *time.Timer
	dialCancel     context.CancelFunc
	staleStop      chan struct{}

	symbols map[string]struct{}
	store   *priceStore
	subs    *subscriberRegistry
	stale   *staleMonitor
	stats   domain.Stats

	norm normalizer
	now  func() time.Time
}

// ClientState is a deep snapshot of the client; mutating it has no effect
// on the client.
type ClientState struct {
	Initialized      bool                                         `json:"initialized"`
	Connected        bool                                         `json:"connected"`
	ConnectionState  domain.ConnectionState                       `json:"connection_state"`
	SubscribedTopics []string                                     `json:"subscribed_topics"`
	Prices           map[string]map[domain.Topic]domain.PriceView `json:"prices"`
	Stats            domain.Stats                                 `json:"stats"`
}

// New creates a disconnected client with default knobs. Initialize must be
// called before the client connects; state queries and Shutdown are safe at
// any point.
func New() *Client {
	c := &Client{
		cfg:   DefaultConfig(),
		state: domain.StateDisconnected,
		store: newPriceStore(false),
		subs:  newSubscriberRegistry(),
		now:   time.Now,
	}
	c.symbols = symbolSet(c.cfg.Symbols)
	c.stale = newStaleMonitor(c.cfg.StaleThreshold, c.cfg.StaleWarnEvery)
	c.norm = normalizer{now: c.now}
	return c
}

// Initialize validates the config, allocates per-symbol state and starts
// connecting in the background. A failure to reach the feed does not fail
// Initialize; the reconnect loop owns that. Config errors are synchronous,
// typed and never retried.
func (c *Client) Initialize(cfg Config) error {
	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		return nil
	}
	c.cfg = cfg
	c.symbols = symbolSet(cfg.Symbols)
	c.store = newPriceStore(cfg.MonotonicTimestamps)
	c.stale = newStaleMonitor(cfg.StaleThreshold, cfg.StaleWarnEvery)
	c.norm = normalizer{now: c.now}
	c.initialized = true
	c.connectLocked()
	return nil
}

// Subscribe registers a handler for every accepted tick on symbol, across
// both topics. The returned function removes exactly this subscription and
// is idempotent.
func (c *Client) Subscribe(symbol string, h TickHandler) (func(), error) {
	if h == nil {
		return nil, newError(CodeInvalidArgument, "nil tick handler")
	}
	symbol = strings.ToLower(strings.TrimSpace(symbol))

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.symbols[symbol]; !ok {
		return nil, newError(CodeInvalidSymbol, fmt.Sprintf("symbol %q is not tracked", symbol))
	}
	id := c.subs.add(symbol, h)

	return func() {
		c.mu.Lock()
		c.subs.remove(symbol, id)
		c.mu.Unlock()
	}, nil
}

// CurrentPrice returns the last known price for (symbol, topic) with its
// staleness, or nil when no tick has arrived yet. It never blocks and never
// fails for connectivity reasons.
func (c *Client) CurrentPrice(symbol string, topic domain.Topic) (*domain.PriceView, error) {
	symbol = strings.ToLower(strings.TrimSpace(symbol))

	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.symbols[symbol]; !ok {
		return nil, newError(CodeInvalidSymbol, fmt.Sprintf("symbol %q is not tracked", symbol))
	}
	v, ok := c.store.view(symbol, topic, c.now())
	if !ok {
		return nil, nil
	}
	return &v, nil
}

// CurrentPrices returns the per-topic views for every topic that has data
// for symbol; nil when none has.
func (c *Client) CurrentPrices(symbol string) (map[domain.Topic]domain.PriceView, error) {
	symbol = strings.ToLower(strings.TrimSpace(symbol))

	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.symbols[symbol]; !ok {
		return nil, newError(CodeInvalidSymbol, fmt.Sprintf("symbol %q is not tracked", symbol))
	}
	return c.store.views(symbol, c.now()), nil
}

// Symbols returns the tracked symbol set.
func (c *Client) Symbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.cfg.Symbols...)
}

// State returns a deep snapshot of the client.
func (c *Client) State() ClientState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st := ClientState{
		Initialized:     c.initialized,
		Connected:       c.state == domain.StateConnected,
		ConnectionState: c.state,
		Prices:          c.store.snapshot(c.now()),
		Stats:           c.stats,
	}
	if c.initialized {
		for _, t := range domain.Topics() {
			st.SubscribedTopics = append(st.SubscribedTopics, domain.WireTopic(t))
		}
	}
	return st
}

// Shutdown tears the client down: abandons any pending reconnect, stops the
// stale monitor, drops the socket, clears every subscriber set and resets
// stats. Safe to call repeatedly and before Initialize.
func (c *Client) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.initialized = false
	c.epoch++

	if c.dialCancel != nil {
		c.dialCancel()
		c.dialCancel = nil
	}
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.stopStaleMonitorLocked()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.subs.clear()
	c.store.clear()
	c.stale.reset()
	c.stats = domain.Stats{}
	c.attempts = 0
	c.state = domain.StateDisconnected
}

func symbolSet(symbols []string) map[string]struct{} {
	set := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		set[s] = struct{}{}
	}
	return set
}
