package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3/database"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/phrazzld/dogadopt-api/internal/config"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// Dialect is the goose dialect for this backend.
const Dialect = database.DialectSQLite3

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrations returns the embedded migration files rooted at their directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// DSN builds the connection string for path with the pragmas every
// connection needs.
func DSN(path string) string {
	if path == MemoryPath {
		return "file::memory:?_pragma=foreign_keys(1)&_time_format=sqlite"
	}
	return fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite",
		path,
	)
}

// Open opens the database at cfg.SQLitePath and verifies it with a ping.
//
// An in-memory database lives only as long as its connection, so its pool is
// pinned to one. File databases run in WAL mode with a busy timeout and use
// up to cfg.MaxOpenConns connections; writers still take turns on the file.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(DriverName, DSN(cfg.SQLitePath))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	conns := cfg.MaxOpenConns
	if cfg.SQLitePath == MemoryPath || conns < 1 {
		conns = 1
	}
	db.SetMaxOpenConns(conns)
	db.SetMaxIdleConns(conns)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return db, nil
}
