package feed

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"tickfeed/internal/domain"
)

// Config holds the client knobs. Immutable after Initialize.
type Config struct {
	EndpointURL string

	// AllowedHosts is the set of hostnames the endpoint may resolve to.
	// A URL outside this set fails Initialize synchronously.
	AllowedHosts []string

	InitialReconnectDelay time.Duration
	MaxReconnectDelay     time.Duration
	ConnectTimeout        time.Duration

	StaleThreshold time.Duration
	// StaleWarnEvery throttles repeated staleness warnings per (symbol, topic).
	StaleWarnEvery time.Duration
	SweepInterval  time.Duration

	MaxMessageBytes int

	Symbols []string

	// MonotonicTimestamps rejects ticks older than the stored entry instead
	// of overwriting it. Off by default to match upstream last-write-wins
	// semantics.
	MonotonicTimestamps bool
}

// DefaultEndpoint is the production feed endpoint.
const DefaultEndpoint = "wss://live-data.tickfeed.io/ws"

var defaultAllowedHosts = []string{"live-data.tickfeed.io", "localhost", "127.0.0.1"}

// DefaultConfig returns a fully populated config.
func DefaultConfig() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.EndpointURL) == "" {
		cfg.EndpointURL = DefaultEndpoint
	}
	if len(cfg.AllowedHosts) == 0 {
		cfg.AllowedHosts = append([]string(nil), defaultAllowedHosts...)
	}
	if cfg.InitialReconnectDelay <= 0 {
		cfg.InitialReconnectDelay = time.Second
	}
	if cfg.MaxReconnectDelay <= 0 {
		cfg.MaxReconnectDelay = 30 * time.Second
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.StaleThreshold <= 0 {
		cfg.StaleThreshold = 10 * time.Second
	}
	if cfg.StaleWarnEvery <= 0 {
		cfg.StaleWarnEvery = 30 * time.Second
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Second
	}
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = 1 << 20
	}
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = append([]string(nil), domain.DefaultSymbols...)
	}
	cfg.Symbols = normalizeSymbols(cfg.Symbols)
}

func (cfg *Config) validate() error {
	u, err := url.Parse(cfg.EndpointURL)
	if err != nil {
		return newError(CodeInvalidURL, fmt.Sprintf("endpoint %q: %v", cfg.EndpointURL, err))
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return newError(CodeBadScheme, fmt.Sprintf("endpoint scheme %q, want ws or wss", u.Scheme))
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return newError(CodeInvalidURL, fmt.Sprintf("endpoint %q has no host", cfg.EndpointURL))
	}
	allowed := false
	for _, h := range cfg.AllowedHosts {
		if strings.EqualFold(strings.TrimSpace(h), host) {
			allowed = true
			break
		}
	}
	if !allowed {
		return newError(CodeHostNotAllowed, fmt.Sprintf("host %q is not on the allowlist", host))
	}
	for _, s := range cfg.Symbols {
		if domain.WireSymbol(domain.TopicComposite, s) == "" {
			return newError(CodeInvalidSymbol, fmt.Sprintf("unsupported symbol %q", s))
		}
	}
	return nil
}

func normalizeSymbols(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		l := strings.ToLower(strings.TrimSpace(s))
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
