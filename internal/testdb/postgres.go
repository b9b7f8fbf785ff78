package testdb

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phrazzld/dogadopt-api/internal/config"
	"github.com/phrazzld/dogadopt-api/internal/platform/migrate"
	"github.com/phrazzld/dogadopt-api/internal/platform/postgres"
)

var migratePostgresOnce sync.Once

// NewPostgres connects to the integration database, applies migrations once
// per process and empties every table. Tests using it must not run in parallel.
func NewPostgres(t testing.TB) *sql.DB {
	t.Helper()
	if ShouldSkipDatabaseTest() {
		t.Skip(PostgresURLEnv + " not set - skipping postgres integration test")
	}
	ctx := context.Background()

	db, err := postgres.Open(ctx, config.DatabaseConfig{
		Driver:       config.DriverPostgres,
		URL:          PostgresURL(),
		MaxOpenConns: 10,
	})
	require.NoError(t, err, "open postgres")
	t.Cleanup(func() { _ = db.Close() })

	var migrateErr error
	migratePostgresOnce.Do(func() {
		migrateErr = migrate.Run(ctx, db, postgres.Dialect, postgres.Migrations(),
			migrate.CommandUp, discardLogger())
	})
	require.NoError(t, migrateErr, "migrate postgres")

	_, err = db.ExecContext(ctx, `TRUNCATE dogs, users`)
	require.NoError(t, err, "truncate tables")

	return db
}
