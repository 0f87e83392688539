// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/slotterhq/slotter/internal/company"
)

func companyJSON(c *company.Company) map[string]any {
	return map[string]any{
		"id":            c.ID.String(),
		"name":          c.Name,
		"maxTeams":      c.MaxTeams,
		"assignedCount": c.AssignedCount,
	}
}

// handleListCompanies is the public read of all companies with their
// capacity and assigned count.
func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.companies.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]map[string]any, 0, len(companies))
	for _, c := range companies {
		resp = append(resp, companyJSON(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

type companyRequest struct {
	Name     string `json:"name"`
	MaxTeams int    `json:"maxTeams"`
}

// handleCreateCompany creates a company. Admin only.
func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var req companyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	created, err := s.companies.Create(r.Context(), req.Name, req.MaxTeams)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, companyJSON(created))
}

// handleUpdateCompany updates a company's name and capacity. Admin only.
// An update dropping capacity below the assigned count is rejected.
func (s *Server) handleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	id, err := ulid.Parse(chi.URLParam(r, "companyID"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "company not found"})
		return
	}

	var req companyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	updated, err := s.companies.Update(r.Context(), id, req.Name, req.MaxTeams)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, companyJSON(updated))
}

// handleDeleteCompany removes a company. Admin only.
func (s *Server) handleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	id, err := ulid.Parse(chi.URLParam(r, "companyID"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "company not found"})
		return
	}

	if err := s.companies.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Company deleted successfully.",
	})
}
