package feed

import (
	"time"

	"tickfeed/internal/domain"
)

// staleMonitor tracks, per (symbol, topic), when a staleness warning was
// last emitted so extended outages do not flood the log. The periodic sweep
// itself is driven by the client while connected.
type staleMonitor struct {
	threshold time.Duration
	warnEvery time.Duration
	lastWarn  map[domain.PriceKey]time.Time
}

func newStaleMonitor(threshold, warnEvery time.Duration) *staleMonitor {
	return &staleMonitor{
		threshold: threshold,
		warnEvery: warnEvery,
		lastWarn:  make(map[domain.PriceKey]time.Time),
	}
}

// check reports whether a warning should be emitted for key given its
// current staleness. First detection warns immediately; repeats are spaced
// by warnEvery.
func (m *staleMonitor) check(key domain.PriceKey, staleness time.Duration, now time.Time) bool {
	if staleness <= m.threshold {
		return false
	}
	if last, ok := m.lastWarn[key]; ok && now.Sub(last) < m.warnEvery {
		return false
	}
	m.lastWarn[key] = now
	return true
}

func (m *staleMonitor) reset() {
	m.lastWarn = make(map[domain.PriceKey]time.Time)
}
