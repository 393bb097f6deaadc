package config

import (
	"errors"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"tickfeed/internal/feed"
)

type Config struct {
	App struct {
		LogLevel string `toml:"log_level"`
	} `toml:"app"`

	Feed struct {
		EndpointURL         string   `toml:"endpoint_url"`
		AllowedHosts        []string `toml:"allowed_hosts"`
		Symbols             []string `toml:"symbols"`
		InitialReconnectMs  int      `toml:"initial_reconnect_ms"`
		MaxReconnectMs      int      `toml:"max_reconnect_ms"`
		ConnectTimeoutMs    int      `toml:"connect_timeout_ms"`
		StaleThresholdMs    int      `toml:"stale_threshold_ms"`
		StaleWarnEveryMs    int      `toml:"stale_warn_every_ms"`
		MaxMessageBytes     int      `toml:"max_message_bytes"`
		MonotonicTimestamps bool     `toml:"monotonic_timestamps"`
	} `toml:"feed"`

	Storage struct {
		// Driver selects the tick journal backend: "sqlite", "postgres"
		// or "" to disable journaling.
		Driver string `toml:"driver"`
		Path   string `toml:"path"` // sqlite file
		DSN    string `toml:"dsn"`  // postgres
	} `toml:"storage"`

	Redis struct {
		Enabled bool   `toml:"enabled"`
		Addr    string `toml:"addr"`
		Prefix  string `toml:"prefix"`
		TTLSec  int    `toml:"ttl_sec"`
	} `toml:"redis"`

	NATS struct {
		Enabled       bool   `toml:"enabled"`
		URL           string `toml:"url"`
		SubjectPrefix string `toml:"subject_prefix"`
	} `toml:"nats"`

	Web struct {
		Enabled bool   `toml:"enabled"`
		Addr    string `toml:"addr"`
	} `toml:"web"`
}

func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.Storage.Driver == "sqlite" && cfg.Storage.Path == "" {
		cfg.Storage.Path = "data/ticks.db"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "127.0.0.1:6379"
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "tickfeed"
	}
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = "nats://127.0.0.1:4222"
	}
	if cfg.NATS.SubjectPrefix == "" {
		cfg.NATS.SubjectPrefix = "ticks"
	}
	if cfg.Web.Addr == "" {
		cfg.Web.Addr = ":8080"
	}
}

func validate(cfg *Config) error {
	switch cfg.Storage.Driver {
	case "", "sqlite", "postgres":
	default:
		return errors.New("storage.driver must be sqlite, postgres or empty")
	}
	if cfg.Storage.Driver == "postgres" && strings.TrimSpace(cfg.Storage.DSN) == "" {
		return errors.New("storage.dsn required for postgres driver")
	}
	return nil
}

// FeedConfig maps the file config onto the client's knobs. Zero values fall
// through to the client defaults.
func (cfg *Config) FeedConfig() feed.Config {
	return feed.Config{
		EndpointURL:           cfg.Feed.EndpointURL,
		AllowedHosts:          cfg.Feed.AllowedHosts,
		Symbols:               cfg.Feed.Symbols,
		InitialReconnectDelay: time.Duration(cfg.Feed.InitialReconnectMs) * time.Millisecond,
		MaxReconnectDelay:     time.Duration(cfg.Feed.MaxReconnectMs) * time.Millisecond,
		ConnectTimeout:        time.Duration(cfg.Feed.ConnectTimeoutMs) * time.Millisecond,
		StaleThreshold:        time.Duration(cfg.Feed.StaleThresholdMs) * time.Millisecond,
		StaleWarnEvery:        time.Duration(cfg.Feed.StaleWarnEveryMs) * time.Millisecond,
		MaxMessageBytes:       cfg.Feed.MaxMessageBytes,
		MonotonicTimestamps:   cfg.Feed.MonotonicTimestamps,
	}
}
