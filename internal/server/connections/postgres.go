package connections

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Migrator brings a freshly opened store up to the current schema.
type Migrator interface {
	RunMigrations(context.Context, *sql.DB) error
}

// openDB is a seam for tests.
var openDB = sql.Open

// PostgresDialer opens a pgx-backed pool for dsn, pings it and applies
// migrations. A pool that fails either step is closed.
func PostgresDialer(dsn string, migrator Migrator) Dialer {
	return func(ctx context.Context) (*sql.DB, error) {
		db, err := openDB("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("db open error: %w", err)
		}

		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("db ping error: %w", err)
		}

		if err := migrator.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migration error: %w", err)
		}

		return db, nil
	}
}
