package testdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phrazzld/dogadopt-api/internal/config"
	"github.com/phrazzld/dogadopt-api/internal/platform/migrate"
	"github.com/phrazzld/dogadopt-api/internal/platform/sqlite"
)

// NewSQLite returns an empty, migrated in-memory database that is closed
// when the test finishes.
func NewSQLite(t testing.TB) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: sqlite.MemoryPath,
	})
	require.NoError(t, err, "open sqlite")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t,
		migrate.Run(ctx, db, sqlite.Dialect, sqlite.Migrations(), migrate.CommandUp, discardLogger()),
		"migrate sqlite")

	return db
}

// NewSQLiteFile returns an empty, migrated database file in the test's temp
// directory, opened with maxConns pooled connections so statements from
// different goroutines really run concurrently.
func NewSQLiteFile(t testing.TB, maxConns int) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		SQLitePath:   filepath.Join(t.TempDir(), "dogadopt.db"),
		MaxOpenConns: maxConns,
	})
	require.NoError(t, err, "open sqlite file")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t,
		migrate.Run(ctx, db, sqlite.Dialect, sqlite.Migrations(), migrate.CommandUp, discardLogger()),
		"migrate sqlite file")

	return db
}
