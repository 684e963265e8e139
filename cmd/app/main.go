// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	_ "time/tzdata"

	"codeberg.org/oliverandrich/portfolio-gate/internal/config"
	"codeberg.org/oliverandrich/portfolio-gate/internal/database"
	"codeberg.org/oliverandrich/portfolio-gate/internal/repository"
	"codeberg.org/oliverandrich/portfolio-gate/internal/server"
	"codeberg.org/oliverandrich/portfolio-gate/internal/services/access"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cmd := &cli.Command{
		Name:    "app",
		Usage:   "Portfolio access gate API",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Flags:   config.Flags(),
		Action:  server.Run,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the API",
				Action: server.Run,
			},
			{
				Name:   "sweep",
				Usage:  "Deactivate expired sessions once and exit",
				Action: runSweep,
			},
			migrateCommand(),
			visitorCommand(),
			adminCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func runSweep(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	server.SetupLogger(cfg.Log.Level, cfg.Log.Format)

	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	n, err := access.NewService(repository.New(db), &cfg.Access, nil).Sweep(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.Root().Writer, "Deactivated %d expired sessions\n", n)
	return err
}

func migrateCommand() *cli.Command {
	step := func(name, usage string, fn func(context.Context, *sqlx.DB) error) *cli.Command {
		return &cli.Command{
			Name:  name,
			Usage: usage,
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return migrate(ctx, cmd, fn)
			},
		}
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Commands: []*cli.Command{
			step("up", "Apply pending migrations", nil),
			step("down", "Roll back the last migration", database.MigrateDown),
			step("reset", "Roll back all migrations", database.MigrateReset),
		},
	}
}

// migrate opens the database, which applies pending migrations, then runs fn.
func migrate(ctx context.Context, cmd *cli.Command, fn func(context.Context, *sqlx.DB) error) error {
	cfg := config.NewFromCLI(cmd)
	server.SetupLogger(cfg.Log.Level, cfg.Log.Format)

	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	if fn != nil {
		if err := fn(ctx, db); err != nil {
			return err
		}
	}

	version, err := database.Version(ctx, db)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.Root().Writer, "Schema version %d\n", version)
	return err
}
