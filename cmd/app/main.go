// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/cp-church/angular-prayerapp-sub007/internal/config"
	"github.com/cp-church/angular-prayerapp-sub007/internal/server"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// A missing .env file is fine; the environment may be set by the platform.
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:    "prayerapp-verify",
		Usage:   "Issue and redeem emailed verification codes for the prayer app",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Flags:   config.Flags(),
		Action:  server.Run,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP server",
				Action: server.Run,
			},
			{
				Name:   "cleanup",
				Usage:  "Delete expired verification codes",
				Action: cleanup,
			},
			{
				Name:  "migrate",
				Usage: "Manage the SQLite schema",
				Commands: []*cli.Command{
					{Name: "up", Usage: "Apply pending migrations", Action: migrate(migrateUp)},
					{Name: "down", Usage: "Roll back the last migration", Action: migrate(migrateDown)},
					{Name: "reset", Usage: "Roll back all migrations", Action: migrate(migrateReset)},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
