// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/slotterhq/slotter/internal/auth"
	authpg "github.com/slotterhq/slotter/internal/auth/postgres"
	"github.com/slotterhq/slotter/internal/company"
	companypg "github.com/slotterhq/slotter/internal/company/postgres"
	"github.com/slotterhq/slotter/internal/config"
	"github.com/slotterhq/slotter/internal/httpapi"
	"github.com/slotterhq/slotter/internal/logging"
	"github.com/slotterhq/slotter/internal/observability"
	"github.com/slotterhq/slotter/internal/store"
	"github.com/slotterhq/slotter/internal/team"
	teampg "github.com/slotterhq/slotter/internal/team/postgres"
)

// shutdownTimeout bounds graceful shutdown of the HTTP servers.
const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Slotter API server",
		Long: `Start the HTTP API server plus an observability listener with
Prometheus metrics and health probes. Shuts down gracefully on SIGINT
or SIGTERM.`,
		RunE: runServe,
	}

	cmd.Flags().String("server.addr", config.DefaultAPIAddr, "API listen address")
	cmd.Flags().String("server.observability_addr", config.DefaultObservabilityAddr, "metrics/health listen address (empty = disabled)")
	cmd.Flags().String("server.public_base_url", config.DefaultPublicBaseURL, "public base URL used in password reset links")
	cmd.Flags().StringSlice("server.allowed_origins", nil, "CORS allowed origins")
	cmd.Flags().String("log.format", config.DefaultLogFormat, "log format (json or text)")
	cmd.Flags().String("log.level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	cmd.Flags().Bool("auto-migrate", false, "apply pending migrations before serving")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.SetDefault("slotter", version, cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if autoMigrate, _ := cmd.Flags().GetBool("auto-migrate"); autoMigrate {
		if err := migrateUp(cfg.Database.URL); err != nil {
			return err
		}
	}

	slog.Info("connecting to database")
	pool, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	tokens, err := auth.NewTokenService([]byte(cfg.Auth.TokenSecret))
	if err != nil {
		return err
	}

	accountRepo := authpg.NewAccountRepository(pool)
	teamRepo := teampg.NewTeamRepository(pool)
	companyRepo := companypg.NewCompanyRepository(pool)

	accounts := auth.NewService(accountRepo, auth.NewBcryptHasher(), tokens, cfg.Server.PublicBaseURL)
	teams := team.NewRegistry(teamRepo, accountRepo)
	companies := company.NewAllocator(companyRepo)

	var ready atomic.Bool

	var obsErrCh <-chan error
	var obsServer *observability.Server
	var metrics *observability.Metrics
	if cfg.Server.ObservabilityAddr != "" {
		obsServer = observability.NewServer(cfg.Server.ObservabilityAddr, ready.Load)
		metrics = obsServer.Metrics()
		obsErrCh, err = obsServer.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").Wrap(err)
		}
	}

	apiServer := httpapi.NewServer(httpapi.Config{
		Addr:           cfg.Server.Addr,
		Accounts:       accounts,
		Tokens:         tokens,
		Teams:          teams,
		Companies:      companies,
		Metrics:        metrics,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	apiErrCh, err := apiServer.Start()
	if err != nil {
		return oops.Code("API_START_FAILED").Wrap(err)
	}
	ready.Store(true)

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case serveErr := <-apiErrCh:
		if serveErr != nil {
			return oops.Code("API_SERVER_FAILED").Wrap(serveErr)
		}
	case serveErr := <-obsErrCh:
		if serveErr != nil {
			return oops.Code("OBSERVABILITY_SERVER_FAILED").Wrap(serveErr)
		}
	}

	ready.Store(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		return err
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}
