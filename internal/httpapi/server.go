// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/slotterhq/slotter/internal/auth"
	"github.com/slotterhq/slotter/internal/company"
	"github.com/slotterhq/slotter/internal/observability"
	"github.com/slotterhq/slotter/internal/team"
)

// Config carries the server's dependencies and settings.
type Config struct {
	Addr           string
	Accounts       *auth.Service
	Tokens         *auth.TokenService
	Teams          *team.Registry
	Companies      *company.Allocator
	Metrics        *observability.Metrics
	AllowedOrigins []string
}

// Server serves the Slotter HTTP API.
type Server struct {
	addr           string
	accounts       *auth.Service
	tokens         *auth.TokenService
	teams          *team.Registry
	companies      *company.Allocator
	metrics        *observability.Metrics
	allowedOrigins []string

	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer creates a new API server.
func NewServer(cfg Config) *Server {
	return &Server{
		addr:           cfg.Addr,
		accounts:       cfg.Accounts,
		tokens:         cfg.Tokens,
		teams:          cfg.Teams,
		companies:      cfg.Companies,
		metrics:        cfg.Metrics,
		allowedOrigins: cfg.AllowedOrigins,
	}
}

// Start begins serving the API.
// It returns an error channel that will receive any errors from the HTTP
// server after it starts. The channel is closed when the server stops
// gracefully.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("api server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		// Use local httpSrv to avoid race with subsequent Start() calls
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			slog.Error("api server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	slog.Info("api server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the API server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_api_server").Wrap(err)
		}
	}

	slog.Info("api server stopped")
	return nil
}

// Addr returns the address the server is listening on.
// Returns empty string if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// Metric helpers tolerate a nil metrics sink so handler tests can run
// without an observability server.

func (s *Server) countRegistration() {
	if s.metrics != nil {
		s.metrics.RegistrationsTotal.Inc()
	}
}

func (s *Server) countLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Server) countTeamSignup(outcome string) {
	if s.metrics != nil {
		s.metrics.TeamSignupsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Server) countSlotAssignment(outcome string) {
	if s.metrics != nil {
		s.metrics.SlotAssignmentsTotal.WithLabelValues(outcome).Inc()
	}
}
