// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/slotterhq/slotter/internal/config"
	"github.com/slotterhq/slotter/internal/store"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending database migrations against the PostgreSQL database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, nil)
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return oops.Code("CONFIG_INVALID").Errorf("database.url is required (or set DATABASE_URL)")
			}

			if down {
				return migrateDown(cmd, cfg.Database.URL)
			}

			cmd.Println("Running migrations...")
			if err := migrateUp(cfg.Database.URL); err != nil {
				return err
			}
			cmd.Println("Migrations completed successfully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "roll back all migrations (destructive)")

	return cmd
}

func migrateUp(databaseURL string) error {
	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		_ = migrator.Close() //nolint:errcheck // close failure doesn't affect applied migrations
	}()

	if err := migrator.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	return nil
}

func migrateDown(cmd *cobra.Command, databaseURL string) error {
	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		_ = migrator.Close() //nolint:errcheck // close failure doesn't affect applied migrations
	}()

	cmd.Println("Rolling back all migrations...")
	if err := migrator.Down(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "roll back migrations").Wrap(err)
	}
	cmd.Println("Rollback completed")
	return nil
}
