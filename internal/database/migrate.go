// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
	"github.com/vinovest/sqlx"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var embedMigrations embed.FS

// newProvider builds a goose provider for the dialect of db.
func newProvider(db *sqlx.DB) (*goose.Provider, error) {
	var (
		dialect goose.Dialect
		dir     string
	)
	switch db.DriverName() {
	case DriverPostgres:
		dialect, dir = goose.DialectPostgres, "migrations/postgres"
	default:
		dialect, dir = goose.DialectSQLite3, "migrations/sqlite"
	}

	fsys, err := fs.Sub(embedMigrations, dir)
	if err != nil {
		return nil, err
	}

	return goose.NewProvider(dialect, db.DB, fsys)
}

// RunMigrations runs all pending goose migrations.
func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	provider, err := newProvider(db)
	if err != nil {
		return fmt.Errorf("creating migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	for _, r := range results {
		slog.Debug("migration applied", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

// MigrateDown rolls back the last migration.
func MigrateDown(ctx context.Context, db *sqlx.DB) error {
	provider, err := newProvider(db)
	if err != nil {
		return err
	}
	_, err = provider.Down(ctx)
	return err
}

// MigrateReset rolls back all migrations.
func MigrateReset(ctx context.Context, db *sqlx.DB) error {
	provider, err := newProvider(db)
	if err != nil {
		return err
	}
	_, err = provider.DownTo(ctx, 0)
	return err
}

// Version returns the current schema version.
func Version(ctx context.Context, db *sqlx.DB) (int64, error) {
	provider, err := newProvider(db)
	if err != nil {
		return 0, err
	}
	return provider.GetDBVersion(ctx)
}
