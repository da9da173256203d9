package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/fastygo/questboard/internal/config"
	pgInfra "github.com/fastygo/questboard/internal/infrastructure/postgres"
	"github.com/fastygo/questboard/repository"
	"github.com/fastygo/questboard/repository/postgres"
	"github.com/fastygo/questboard/repository/sqlite"
)

// Backend bundles the repositories of the configured relational driver.
type Backend struct {
	Driver string
	Users  repository.UserRepository
	Store  repository.Store

	pool *pgxpool.Pool
	db   *sql.DB
}

// Open connects to the driver selected by cfg.Storage. For PostgreSQL pending
// migrations are applied first; SQLite creates its schema on open.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		if err := pgInfra.RunMigrations(cfg, logger); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return &Backend{
			Driver: config.StorageDriverPostgres,
			Users:  postgres.NewUserRepository(pool),
			Store:  postgres.NewStore(pool),
			pool:   pool,
		}, nil

	case config.StorageDriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		logger.Info("opened sqlite store", zap.String("path", cfg.Storage.SQLitePath))
		return &Backend{
			Driver: config.StorageDriverSQLite,
			Users:  sqlite.NewUserRepository(db),
			Store:  sqlite.NewStore(db),
			db:     db,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

// Ping checks the underlying connection.
func (b *Backend) Ping(ctx context.Context) error {
	switch {
	case b.pool != nil:
		return b.pool.Ping(ctx)
	case b.db != nil:
		return b.db.PingContext(ctx)
	default:
		return fmt.Errorf("storage backend closed")
	}
}

// Close releases the connection pool.
func (b *Backend) Close(logger *zap.Logger) error {
	switch {
	case b.pool != nil:
		pgInfra.Close(b.pool, logger)
		b.pool = nil
	case b.db != nil:
		err := b.db.Close()
		b.db = nil
		return err
	}
	return nil
}
