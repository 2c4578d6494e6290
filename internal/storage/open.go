package storage

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"pindl/internal/config"
)

// Open creates the store selected by cfg.StoreDriver.
func Open(cfg config.Config, logger logrus.FieldLogger) (Store, error) {
	switch cfg.StoreDriver {
	case config.StoreBadger:
		return NewBadgerStore(cfg.StorePath, logger)
	case config.StoreSQLite:
		return NewSQLiteStore(cfg.StorePath, logger)
	case config.StoreMemory:
		return NewMemoryStore(logger), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
