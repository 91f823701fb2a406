package server

import (
	"context"
	"database/sql"
	"fmt"

	"leaveportal/internal/domain/audit"
	"leaveportal/internal/domain/events"
	"leaveportal/internal/platform/config"
	"leaveportal/internal/platform/db"
	"leaveportal/internal/transport/http/middleware"
)

// Storage bundles the stores backing one database connection.
type Storage struct {
	Events      events.Store
	Audit       audit.Store
	Idempotency *middleware.IdempotencyStore
	close       func()
}

// SQLiteStorage wraps an open sqlite connection. Idempotency keys are only
// kept on postgres, so the sqlite backend gets a no-op store.
func SQLiteStorage(conn *sql.DB) Storage {
	return Storage{
		Events:      events.NewSQLiteStore(conn),
		Audit:       audit.NewSQLiteStore(conn),
		Idempotency: middleware.NewIdempotencyStore(nil),
		close:       func() { _ = conn.Close() },
	}
}

func openStorage(ctx context.Context, cfg config.Config) (Storage, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		conn, err := db.OpenSQLite(ctx, cfg.DatabaseURL)
		if err != nil {
			return Storage{}, err
		}
		if cfg.RunMigrations {
			if err := db.MigrateSQLite(ctx, conn); err != nil {
				_ = conn.Close()
				return Storage{}, fmt.Errorf("migrations failed: %w", err)
			}
		}
		return SQLiteStorage(conn), nil
	case config.DriverPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return Storage{}, fmt.Errorf("db connect failed: %w", err)
		}
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool); err != nil {
				pool.Close()
				return Storage{}, fmt.Errorf("migrations failed: %w", err)
			}
		}
		return Storage{
			Events:      events.NewPostgresStore(pool),
			Audit:       audit.NewPostgresStore(pool),
			Idempotency: middleware.NewIdempotencyStore(pool),
			close:       pool.Close,
		}, nil
	default:
		return Storage{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}
