package state

import (
	"context"
	"fmt"
	"strings"

	"bingads-extractor/shared/config"
	"bingads-extractor/shared/observability"
)

// New opens the backend selected by cfg.State.Backend. The returned function
// releases the backend's connection.
func New(ctx context.Context, cfg *config.Config, logger observability.Logger) (Store, func() error, error) {
	noop := func() error { return nil }

	backend := strings.ToLower(cfg.State.Backend)
	switch backend {
	case "", "file":
		return NewFileStore(cfg.DataDir), noop, nil

	case "redis":
		client, err := NewRedisClient(ctx, cfg.State)
		if err != nil {
			return nil, noop, err
		}
		store := NewRedisStore(client, cfg.State.KeyPrefix, cfg.ConfigID)
		logger.Info(ctx, "State backend initialized", observability.Fields{
			"backend": backend,
			"key":     store.Key(),
		})
		return store, client.Close, nil

	case "postgres":
		db, err := OpenPostgres(ctx, cfg.State.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		store := NewPostgresStore(db, cfg.State.Table, cfg.ConfigID)
		if err := store.EnsureTable(ctx); err != nil {
			db.Close()
			return nil, noop, err
		}
		logger.Info(ctx, "State backend initialized", observability.Fields{
			"backend": backend,
			"table":   cfg.State.Table,
		})
		return store, db.Close, nil
	}

	return nil, noop, fmt.Errorf("unsupported state backend: %q", cfg.State.Backend)
}
