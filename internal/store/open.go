package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/annabel-goldman/aquarium/internal/config"
	"github.com/annabel-goldman/aquarium/internal/db"
	"github.com/annabel-goldman/aquarium/internal/game"
)

type Config struct {
	Driver        string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
	// Migrate applies pending schema migrations before the store is used.
	Migrate bool
}

// Open connects the configured backend. The returned close func releases it.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (game.Store, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case config.StorePostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		conn := db.SQL(pool)
		closeFn := func() {
			_ = conn.Close()
			pool.Close()
		}
		if cfg.Migrate {
			if err := db.Migrate(ctx, conn); err != nil {
				closeFn()
				return nil, nil, err
			}
			if v, err := db.MigrationVersion(ctx, conn); err == nil {
				logger.Info("schema migrated", "version", v)
			}
		}
		return NewPostgres(conn), closeFn, nil
	case config.StoreMongo:
		m, err := ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		return m, func() { _ = m.Close(context.Background()) }, nil
	case config.StoreMemory:
		logger.Warn("using in-memory store; accounts are lost on restart")
		return NewMemory(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
