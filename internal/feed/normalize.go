package feed

import (
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"tickfeed/internal/domain"
)

// The upstream has renamed fields more than once; each list is evaluated in
// priority order and the first present alias wins. New aliases are additive.
var (
	symbolAliases    = []string{"symbol", "s", "ticker", "instrument"}
	priceAliases     = []string{"value", "price", "p", "px"}
	timestampAliases = []string{"timestamp", "ts", "time", "t"}
)

type normalizer struct {
	now func() time.Time
}

// normalize converts one raw payload record into a Tick, or rejects it.
// Rejections are silent: an unknown symbol or junk price must not
// take the feed down.
func (n *normalizer) normalize(record map[string]any, topic domain.Topic) (domain.Tick, bool) {
	raw, ok := firstAlias(record, symbolAliases)
	if !ok {
		return domain.Tick{}, false
	}
	rawSym, ok := raw.(string)
	if !ok {
		return domain.Tick{}, false
	}
	symbol, ok := domain.NormalizedSymbol(rawSym)
	if !ok {
		return domain.Tick{}, false
	}

	rawPrice, ok := firstAlias(record, priceAliases)
	if !ok {
		return domain.Tick{}, false
	}
	price, ok := parsePrice(rawPrice)
	if !ok || price <= 0 {
		return domain.Tick{}, false
	}

	ts := n.now()
	if rawTS, present := firstAlias(record, timestampAliases); present {
		parsed, ok := parseTimestamp(rawTS)
		if ok {
			ts = parsed
		} else {
			// Recoverable: keep the tick, stamp it with receipt time.
			log.Warn().
				Str("symbol", symbol).
				Interface("timestamp", rawTS).
				Msg("unparsable tick timestamp, substituting current time")
		}
	}

	return domain.Tick{
		Symbol:    symbol,
		Topic:     topic,
		Price:     price,
		Timestamp: ts,
	}, true
}

func firstAlias(record map[string]any, aliases []string) (any, bool) {
	for _, k := range aliases {
		if v, ok := record[k]; ok {
			return v, true
		}
	}
	return nil, false
}

func parsePrice(v any) (float64, bool) {
	switch p := v.(type) {
	case float64:
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return 0, false
		}
		return p, true
	case string:
		f, err := strconv.ParseFloat(p, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func parseTimestamp(v any) (time.Time, bool) {
	switch ts := v.(type) {
	case float64:
		if ts <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(ts)), true
	case string:
		if ms, err := strconv.ParseInt(ts, 10, 64); err == nil && ms > 0 {
			return time.UnixMilli(ms), true
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			return t, true
		}
		if t, err := time.Parse("2006-01-02T15:04:05", ts); err == nil {
			return t, true
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}
