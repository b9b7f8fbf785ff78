// Package migrate runs the embedded SQL migrations of a store backend with goose.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

// TableName is the table goose uses to track applied migrations.
const TableName = "schema_migrations"

// Supported migration commands.
const (
	CommandUp      = "up"
	CommandDown    = "down"
	CommandReset   = "reset"
	CommandStatus  = "status"
	CommandVersion = "version"
)

// ErrUnknownCommand is returned for commands other than the ones above.
var ErrUnknownCommand = errors.New("unknown migration command")

// Run executes command against db using the migrations found at the root of fsys.
func Run(
	ctx context.Context,
	db *sql.DB,
	dialect database.Dialect,
	fsys fs.FS,
	command string,
	log *slog.Logger,
) error {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(
		slog.String("component", "migrations"),
		slog.String("command", command),
		slog.String("dialect", string(dialect)),
	)

	provider, err := newProvider(db, dialect, fsys)
	if err != nil {
		return err
	}

	start := time.Now()
	log.Info("starting migration operation")

	switch command {
	case CommandUp:
		results, err := provider.Up(ctx)
		logResults(log, results)
		if err != nil {
			return fmt.Errorf("migration up failed: %w", err)
		}
	case CommandDown:
		result, err := provider.Down(ctx)
		if result != nil {
			logResults(log, []*goose.MigrationResult{result})
		}
		if err != nil {
			return fmt.Errorf("migration down failed: %w", err)
		}
	case CommandReset:
		results, err := provider.DownTo(ctx, 0)
		logResults(log, results)
		if err != nil {
			return fmt.Errorf("migration reset failed: %w", err)
		}
	case CommandStatus:
		statuses, err := provider.Status(ctx)
		if err != nil {
			return fmt.Errorf("migration status failed: %w", err)
		}
		for _, s := range statuses {
			log.Info("migration status",
				slog.Int64("version", s.Source.Version),
				slog.String("path", s.Source.Path),
				slog.String("state", string(s.State)),
				slog.Time("applied_at", s.AppliedAt))
		}
	case CommandVersion:
		version, err := provider.GetDBVersion(ctx)
		if err != nil {
			return fmt.Errorf("failed to read migration version: %w", err)
		}
		log.Info("current migration version", slog.Int64("version", version))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}

	log.Info("migration operation completed",
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return nil
}

// Version returns the highest applied migration version, 0 for a fresh database.
func Version(ctx context.Context, db *sql.DB, dialect database.Dialect, fsys fs.FS) (int64, error) {
	provider, err := newProvider(db, dialect, fsys)
	if err != nil {
		return 0, err
	}
	return provider.GetDBVersion(ctx)
}

func newProvider(db *sql.DB, dialect database.Dialect, fsys fs.FS) (*goose.Provider, error) {
	store, err := database.NewStore(dialect, TableName)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration store: %w", err)
	}
	provider, err := goose.NewProvider("", db, fsys, goose.WithStore(store))
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return provider, nil
}

func logResults(log *slog.Logger, results []*goose.MigrationResult) {
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		log.Info("applied migration",
			slog.Int64("version", r.Source.Version),
			slog.String("path", r.Source.Path),
			slog.String("direction", r.Direction),
			slog.Int64("duration_ms", r.Duration.Milliseconds()))
	}
}
