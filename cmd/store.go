package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/scholar-cli/internal/store"
)

// initStore opens the configured store backend. Callers own Close.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.Path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("cmd: unsupported store driver %q", cfg.Store.Driver)
	}
}
