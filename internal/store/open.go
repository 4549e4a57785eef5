package store

import (
	"context"
	"fmt"

	config "github.com/shivamghaware/BlogIn/internal/init"
)

// Open returns the KV backend selected by cfg.StoreBackend.
func Open(ctx context.Context, cfg *config.Config) (KV, error) {
	switch cfg.StoreBackend {
	case "memory":
		logg.Info("store", "Using in-memory store; data is lost on exit")
		return NewMemory(), nil
	case "badger", "":
		return OpenBadger(DefaultBadgerConfig(cfg.BadgerPath))
	case "cassandra":
		return OpenCassandra(cfg)
	case "postgres":
		return OpenPostgres(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.StoreBackend)
	}
}
