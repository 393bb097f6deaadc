package storage

import (
	"fmt"

	"tickfeed/internal/application/port"
	"tickfeed/internal/infrastructure/config"
	"tickfeed/internal/infrastructure/storage/postgres"
	"tickfeed/internal/infrastructure/storage/sqlite"
)

// Open returns the journal selected by storage.driver, or (nil, nil) when
// journaling is disabled.
func Open(cfg *config.Config) (port.Journal, error) {
	switch cfg.Storage.Driver {
	case "":
		return nil, nil
	case "sqlite":
		return sqlite.New(cfg.Storage.Path)
	case "postgres":
		return postgres.New(cfg.Storage.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
