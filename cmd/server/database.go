package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3/database"

	"github.com/phrazzld/dogadopt-api/internal/config"
	"github.com/phrazzld/dogadopt-api/internal/platform/migrate"
	"github.com/phrazzld/dogadopt-api/internal/platform/postgres"
	"github.com/phrazzld/dogadopt-api/internal/platform/sqlite"
	"github.com/phrazzld/dogadopt-api/internal/store"
)

// appDatabase is the opened connection pool plus everything that differs
// between the supported drivers.
type appDatabase struct {
	*sql.DB
	driver     string
	dialect    database.Dialect
	migrations fs.FS
}

// openDatabase connects to the configured backend and verifies the
// connection.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*appDatabase, error) {
	var (
		db  *sql.DB
		err error
		out = &appDatabase{driver: cfg.Driver}
	)

	switch cfg.Driver {
	case config.DriverPostgres:
		db, err = postgres.Open(ctx, cfg)
		out.dialect = postgres.Dialect
		out.migrations = postgres.Migrations()
	case config.DriverSQLite:
		db, err = sqlite.Open(ctx, cfg)
		out.dialect = sqlite.Dialect
		out.migrations = sqlite.Migrations()
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	out.DB = db
	logger.Info("database connection established", slog.String("driver", cfg.Driver))
	return out, nil
}

func (d *appDatabase) migrate(ctx context.Context, command string, logger *slog.Logger) error {
	if err := migrate.Run(ctx, d.DB, d.dialect, d.migrations, command, logger); err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}
	return nil
}

func (d *appDatabase) stores(logger *slog.Logger) (store.UserStore, store.DogStore) {
	if d.driver == config.DriverSQLite {
		return sqlite.NewSQLiteUserStore(d.DB, logger), sqlite.NewSQLiteDogStore(d.DB, logger)
	}
	return postgres.NewPostgresUserStore(d.DB, logger), postgres.NewPostgresDogStore(d.DB, logger)
}
