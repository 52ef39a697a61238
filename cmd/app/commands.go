// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cp-church/angular-prayerapp-sub007/internal/config"
	"github.com/cp-church/angular-prayerapp-sub007/internal/database"
	"github.com/cp-church/angular-prayerapp-sub007/internal/server"
	"github.com/cp-church/angular-prayerapp-sub007/internal/services/verification"
	"github.com/urfave/cli/v3"
)

type migrateDirection int

const (
	migrateUp migrateDirection = iota
	migrateDown
	migrateReset
)

// cleanup deletes expired verification codes once and exits.
func cleanup(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	server.SetupLogger(cfg.Log.Level, cfg.Log.Format)

	store, closeStore, err := server.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	n, err := verification.NewService(store, nil, verification.Options{}).Cleanup(ctx)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	slog.Info("expired verification codes deleted", "count", n)
	return nil
}

// migrate returns an action that moves the SQLite schema in direction.
func migrate(direction migrateDirection) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg := config.NewFromCLI(cmd)
		server.SetupLogger(cfg.Log.Level, cfg.Log.Format)

		if cfg.Store.Driver != config.StoreSQLite {
			return errors.New("migrations only apply to the sqlite store")
		}

		// Open applies pending migrations.
		db, err := database.Open(cfg.Store.DSN)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				slog.Error("failed to close database", "error", closeErr)
			}
		}()

		switch direction {
		case migrateDown:
			err = database.MigrateDown(ctx, db.DB)
		case migrateReset:
			err = database.MigrateReset(ctx, db.DB)
		}
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		slog.Info("migrations applied", "dsn", cfg.Store.DSN)
		return nil
	}
}
