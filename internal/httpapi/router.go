// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Router builds the chi router with the full route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.countRequests)

	if len(s.allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Public surface
	r.Post("/register", s.handleRegister)
	r.Post("/login", s.handleLogin)
	r.Post("/forgot-password", s.handleForgotPassword)
	r.Post("/reset-password", s.handleResetPassword)
	r.Post("/team-signup", s.handleTeamSignup)
	r.Get("/api/companies", s.handleListCompanies)

	// Authenticated surface
	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/api/user", s.handleWhoami)
		r.Post("/api/teams/{teamID}/select-company", s.handleSelectCompany)

		// Admin surface
		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)

			r.Get("/api/teams", s.handleListTeams)
			r.Post("/api/companies", s.handleCreateCompany)
			r.Put("/api/companies/{companyID}", s.handleUpdateCompany)
			r.Delete("/api/companies/{companyID}", s.handleDeleteCompany)
		})
	})

	return r
}

// countRequests records per-route request counts once the response has
// been written. Route patterns come from chi so the label set stays
// bounded.
func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.RequestsTotal.
			WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).
			Inc()
	})
}
