package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agenthands/platformid/internal/config"
	"github.com/agenthands/platformid/internal/driver"
)

// Open builds the backend named by cfg.Store.Backend.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory, "":
		return NewMemoryStore(), nil

	case config.BackendSQLite:
		s, err := OpenSQLite(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("opened sqlite store", slog.String("path", s.Path()))
		return s, nil

	case config.BackendMemgraph:
		d, err := driver.NewMemgraphDriver(ctx, cfg.Memgraph.URI, cfg.Memgraph.User, cfg.Memgraph.Password, logger)
		if err != nil {
			return nil, err
		}
		g := NewGraphStore(d)
		if err := g.BuildIndices(ctx); err != nil {
			_ = d.Close(ctx)
			return nil, fmt.Errorf("build indices: %w", err)
		}
		return g, nil

	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}
}
