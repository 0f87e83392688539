// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/slotterhq/slotter/internal/auth"
	authpg "github.com/slotterhq/slotter/internal/auth/postgres"
	"github.com/slotterhq/slotter/internal/config"
	"github.com/slotterhq/slotter/internal/store"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	username string
	email    string
	timeout  time.Duration
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the bootstrap admin account",
		Long: `Creates the initial admin account used to manage companies and view
teams. The password is read from the SLOTTER_ADMIN_PASSWORD environment
variable. This command is idempotent - it will not create duplicates if
run multiple times.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.username, "admin-username", "admin", "username for the bootstrap admin")
	cmd.Flags().StringVar(&cfg.email, "admin-email", "", "email for the bootstrap admin (required)")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string, cfg *seedConfig) error {
	appCfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}
	if appCfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url is required (or set DATABASE_URL)")
	}
	if cfg.email == "" {
		return oops.Code("CONFIG_INVALID").Errorf("--admin-email is required")
	}
	password := os.Getenv("SLOTTER_ADMIN_PASSWORD")
	if password == "" {
		return oops.Code("CONFIG_INVALID").Errorf("SLOTTER_ADMIN_PASSWORD environment variable is required")
	}
	if len(password) < auth.MinPasswordLength {
		return oops.Code("CONFIG_INVALID").Errorf("admin password must be at least %d characters", auth.MinPasswordLength)
	}

	// Use cmd.Context() to respect SIGINT/SIGTERM signals
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	cmd.Println("Connecting to database...")
	pool, err := store.Connect(ctx, appCfg.Database.URL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	hash, err := auth.NewBcryptHasher().Hash(password)
	if err != nil {
		return oops.Code("SEED_FAILED").With("operation", "hash admin password").Wrap(err)
	}

	now := time.Now()
	admin := &auth.Account{
		ID:           ulid.Make(),
		Username:     cfg.username,
		Email:        cfg.email,
		PasswordHash: hash,
		Role:         auth.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	accountRepo := authpg.NewAccountRepository(pool)
	if err := accountRepo.Create(ctx, admin); err != nil {
		// Tolerate an existing admin; the seed must be rerunnable.
		if errors.Is(err, auth.ErrEmailTaken) || errors.Is(err, auth.ErrUsernameTaken) {
			cmd.Println("Admin account already exists, skipping seed")
			slog.Info("admin already seeded", "username", cfg.username)
			return nil
		}
		return oops.Code("SEED_FAILED").With("operation", "create admin account").Wrap(err)
	}

	cmd.Printf("Created admin account %q\n", cfg.username)
	slog.Info("created admin account", "id", admin.ID.String(), "username", admin.Username)
	return nil
}
