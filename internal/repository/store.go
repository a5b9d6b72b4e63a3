package repository

import (
	"context"
	"fmt"

	"github.com/himtika/proposal-tracker/internal/config"
	"github.com/himtika/proposal-tracker/internal/database"
)

// Store bundles the repositories of the configured backend.
type Store struct {
	Users     UsersRepository
	Companies CompaniesRepository
	close     func()
}

// OpenStore connects to the backend selected by cfg.StoreDriver.
func OpenStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := database.Connect(ctx, cfg.DatabaseURL, database.PoolOptions{MaxConns: cfg.DatabaseMaxConns})
		if err != nil {
			return nil, err
		}
		return &Store{
			Users:     NewPGXUsersRepository(pool),
			Companies: NewPGXCompaniesRepository(pool),
			close:     pool.Close,
		}, nil
	case config.StoreSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Store{
			Users:     NewSQLiteUsersRepository(db),
			Companies: NewSQLiteCompaniesRepository(db),
			close:     func() { _ = db.Close() },
		}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

// Close releases the underlying connections.
func (s *Store) Close() {
	if s != nil && s.close != nil {
		s.close()
	}
}
