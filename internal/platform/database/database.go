// Package database opens the PostgreSQL pool used by the record store.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"audittrail/internal/platform/config"
	"audittrail/pkg/platform/audit/store/postgres"

	_ "github.com/lib/pq"
)

// Open connects to cfg.URL, applies migrations when configured and
// verifies the connection.
func Open(ctx context.Context, cfg config.Database) (*sql.DB, error) {
	if cfg.MigrateOnStart {
		if err := postgres.Migrate(cfg.URL); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
