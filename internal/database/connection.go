// Package database provides the article store and its SQL connection.
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	// DriverSQLite is the driver name for file databases.
	DriverSQLite = "sqlite3"
	// DriverPostgres is the driver name for postgres:// DSNs.
	DriverPostgres = "postgres"

	// DefaultMaxOpenConns is the default maximum number of open Postgres connections
	DefaultMaxOpenConns = 10
	// DefaultMaxIdleConns is the default maximum number of idle Postgres connections
	DefaultMaxIdleConns = 2
	// DefaultConnMaxLifetime is the default maximum connection lifetime
	DefaultConnMaxLifetime = 5 * time.Minute
	// DefaultPingTimeout is the default timeout for ping operations
	DefaultPingTimeout = 5 * time.Second

	sqliteBusyTimeoutMS = 5000
)

// DriverFor returns the driver name and DSN for a configured store path.
func DriverFor(path string) (driver, dsn string) {
	if strings.HasPrefix(path, "postgres://") || strings.HasPrefix(path, "postgresql://") {
		return DriverPostgres, path
	}

	if strings.Contains(path, "?") {
		return DriverSQLite, path
	}
	return DriverSQLite, fmt.Sprintf("file:%s?_busy_timeout=%d", path, sqliteBusyTimeoutMS)
}

// Open connects to the store at path, verifies it with a ping and returns
// the handle. The caller owns the handle and must Close it.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	driver, dsn := DriverFor(path)

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if driver == DriverSQLite {
		// one writer at a time
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(DefaultMaxOpenConns)
		db.SetMaxIdleConns(DefaultMaxIdleConns)
		db.SetConnMaxLifetime(DefaultConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()

	if pingErr := db.PingContext(pingCtx); pingErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, pingErr)
	}

	return db, nil
}
