package feed

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"tickfeed/internal/domain"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 25 * time.Second
	writeWait    = 5 * time.Second
)

// subscribeRequest is the handshake sent right after the socket opens: one
// entry per (topic, wire-symbol) pair, each with an exact-match filter.
type subscribeRequest struct {
	Type          string             `json:"type"`
	Subscriptions []subscriptionSpec `json:"subscriptions"`
}

type subscriptionSpec struct {
	Topic  string            `json:"topic"`
	Filter map[string]string `json:"filter"`
}

// connectLocked transitions to connecting and dials in the background.
// No-op when already connected or a dial is in flight. Caller holds c.mu.
func (c *Client) connectLocked() {
	if c.state == domain.StateConnected || c.state == domain.StateConnecting {
		return
	}
	c.state = domain.StateConnecting
	c.epoch++
	epoch := c.epoch

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ConnectTimeout)
	c.dialCancel = cancel
	endpoint := c.cfg.EndpointURL

	go c.dial(ctx, cancel, epoch, endpoint)
}

// dial runs off the client lock; the connect timeout is carried by ctx and
// fails the attempt while still connecting.
func (c *Client) dial(ctx context.Context, cancel context.CancelFunc, epoch int, endpoint string) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	cancel()

	c.mu.Lock()
	if epoch != c.epoch || !c.initialized {
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	c.dialCancel = nil

	if err != nil {
		c.stats.Errors++
		c.state = domain.StateDisconnected
		c.scheduleReconnectLocked()
		c.mu.Unlock()
		log.Warn().Err(err).Str("endpoint", endpoint).Msg("feed dial failed")
		return
	}

	// Transport-level cap well above the configured limit: the pipeline
	// enforces MaxMessageBytes without dropping the connection.
	conn.SetReadLimit(int64(c.cfg.MaxMessageBytes) * 4)

	c.conn = conn
	c.state = domain.StateConnected
	c.attempts = 0
	symbols := append([]string(nil), c.cfg.Symbols...)
	c.startStaleMonitorLocked()
	c.mu.Unlock()

	if err := sendHandshake(conn, symbols); err != nil {
		log.Error().Err(err).Msg("feed handshake failed")
		c.onClosed(epoch, err)
		return
	}

	log.Info().Str("endpoint", endpoint).Int("symbols", len(symbols)).Msg("feed connected")
	go c.readLoop(epoch, conn)
}

func buildSubscribeRequest(symbols []string) subscribeRequest {
	req := subscribeRequest{Type: "subscribe"}
	for _, topic := range domain.Topics() {
		for _, symbol := range symbols {
			wire := domain.WireSymbol(topic, symbol)
			if wire == "" {
				continue
			}
			req.Subscriptions = append(req.Subscriptions, subscriptionSpec{
				Topic:  domain.WireTopic(topic),
				Filter: map[string]string{"symbol": wire},
			})
		}
	}
	return req
}

func sendHandshake(conn *websocket.Conn, symbols []string) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(buildSubscribeRequest(symbols))
}

// readLoop delivers frames to the pipeline in arrival order and keeps the
// connection alive with pings. Exits on the first read error, which drives
// the disconnect transition.
func (c *Client) readLoop(epoch int, conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				errCh <- err
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			c.handleMessage(raw)
		}
	}()

	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case err := <-errCh:
			c.onClosed(epoch, err)
			return
		case <-pingTicker.C:
			_ = conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait))
		}
	}
}

// onClosed handles socket teardown for the given connection generation.
// Stale generations (already shut down or replaced) are ignored.
func (c *Client) onClosed(epoch int, err error) {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		return
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.stopStaleMonitorLocked()
	c.state = domain.StateDisconnected
	initialized := c.initialized
	if initialized {
		c.scheduleReconnectLocked()
	}
	c.mu.Unlock()

	if initialized {
		log.Warn().Err(err).Msg("feed disconnected, reconnect scheduled")
	}
}

// scheduleReconnectLocked arms the backoff timer. No-op when a reconnect is
// already pending or the client has been shut down. Caller holds c.mu.
func (c *Client) scheduleReconnectLocked() {
	if c.reconnectTimer != nil || !c.initialized {
		return
	}
	c.state = domain.StateReconnecting

	delay := backoffDelay(c.cfg.InitialReconnectDelay, c.cfg.MaxReconnectDelay, c.attempts)
	log.Info().
		Int("attempt", c.attempts).
		Int64("delay_ms", delay.Milliseconds()).
		Msg("feed reconnect scheduled")
	if delay >= c.cfg.StaleThreshold {
		log.Warn().
			Int64("delay_ms", delay.Milliseconds()).
			Int64("stale_threshold_ms", c.cfg.StaleThreshold.Milliseconds()).
			Msg("reconnect delay exceeds stale threshold, price data will go stale")
	}

	c.reconnectTimer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		c.reconnectTimer = nil
		if !c.initialized {
			c.mu.Unlock()
			return
		}
		c.attempts++
		c.stats.Reconnects++
		c.connectLocked()
		c.mu.Unlock()
	})
}

// backoffDelay computes min(initial * 2^attempts, max). Retries are
// unbounded; only the delay is capped.
func backoffDelay(initial, max time.Duration, attempts int) time.Duration {
	if attempts >= 32 {
		return max
	}
	delay := initial << uint(attempts)
	if delay <= 0 || delay > max {
		return max
	}
	return delay
}

func (c *Client) startStaleMonitorLocked() {
	if c.staleStop != nil {
		return
	}
	stop := make(chan struct{})
	c.staleStop = stop
	interval := c.cfg.SweepInterval

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.sweepStale(stop)
			}
		}
	}()
}

func (c *Client) stopStaleMonitorLocked() {
	if c.staleStop != nil {
		close(c.staleStop)
		c.staleStop = nil
	}
}

func (c *Client) sweepStale(stop chan struct{}) {
	type staleWarning struct {
		key       domain.PriceKey
		staleness time.Duration
	}
	var warnings []staleWarning

	c.mu.Lock()
	if c.staleStop != stop {
		c.mu.Unlock()
		return
	}
	now := c.now()
	for key, ts := range c.store.timestamps() {
		staleness := now.Sub(ts)
		if c.stale.check(key, staleness, now) {
			warnings = append(warnings, staleWarning{key: key, staleness: staleness})
		}
	}
	c.mu.Unlock()

	for _, w := range warnings {
		log.Warn().
			Str("symbol", w.key.Symbol).
			Str("topic", string(w.key.Topic)).
			Int64("staleness_ms", w.staleness.Milliseconds()).
			Msg("price data is stale")
	}
}
