package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS articles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		link TEXT NOT NULL UNIQUE,
		source TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles (created_at)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS articles (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		link TEXT NOT NULL UNIQUE,
		source TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles (created_at)`,
}

// EnsureSchema creates the articles table and its indexes when missing.
// It is safe to run on every startup.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	statements := sqliteSchema
	if db.DriverName() == DriverPostgres {
		statements = postgresSchema
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	return nil
}
