package domain

import "time"

// Tick is one normalized price observation for a symbol on a topic.
// Transient: produced per message, stored and fanned out immediately.
type Tick struct {
	Symbol    string    `json:"symbol"`
	Topic     Topic     `json:"topic"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// PriceKey identifies one entry in the price store.
type PriceKey struct {
	Symbol string
	Topic  Topic
}

// PriceView is a read-only snapshot of the last known price for a key,
// with staleness computed at read time.
type PriceView struct {
	Price       float64   `json:"price"`
	Timestamp   time.Time `json:"timestamp"`
	StalenessMS int64     `json:"staleness_ms"`
}

// ConnectionState is the feed connection lifecycle state.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
)

// Stats are process-wide feed counters, reset on shutdown.
type Stats struct {
	MessagesReceived int64     `json:"messages_received"`
	TicksReceived    int64     `json:"ticks_received"`
	Unrecognized     int64     `json:"unrecognized"`
	Errors           int64     `json:"errors"`
	Reconnects       int64     `json:"reconnects"`
	StaleDrops       int64     `json:"stale_drops"`
	LastTickAt       time.Time `json:"last_tick_at"`
}
