// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
)

type teamSignupRequest struct {
	TeamName        string   `json:"teamName"`
	FounderUsername string   `json:"founderUsername"`
	MemberUsernames []string `json:"memberUsernames"`
}

// handleTeamSignup forms a team from the founder and member usernames.
// Identity comes from the body usernames, matching the public signup
// flow the frontend uses before members have logged in.
func (s *Server) handleTeamSignup(w http.ResponseWriter, r *http.Request) {
	var req teamSignupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	formed, err := s.teams.Form(r.Context(), req.TeamName, req.FounderUsername, req.MemberUsernames)
	if err != nil {
		s.countTeamSignup("failure")
		writeError(w, r, err)
		return
	}

	s.countTeamSignup("success")
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Team registered successfully.",
		"teamId":  formed.ID.String(),
	})
}

// handleListTeams returns all teams with members and company resolved.
// Admin only.
func (s *Server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.teams.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]map[string]any, 0, len(summaries))
	for _, summary := range summaries {
		members := summary.Members
		if members == nil {
			members = []string{}
		}
		item := map[string]any{
			"id":      summary.ID.String(),
			"name":    summary.Name,
			"members": members,
		}
		if summary.CompanyName != nil {
			item["company"] = *summary.CompanyName
		}
		resp = append(resp, item)
	}
	writeJSON(w, http.StatusOK, resp)
}

type selectCompanyRequest struct {
	CompanyID string `json:"companyId"`
}

// handleSelectCompany claims a company slot for the caller's team.
// Students may only assign their own team; admins may assign any team.
func (s *Server) handleSelectCompany(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error": "authentication required",
		})
		return
	}

	teamID, err := ulid.Parse(chi.URLParam(r, "teamID"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "team not found"})
		return
	}

	var req selectCompanyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	companyID, err := ulid.Parse(req.CompanyID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "company not found"})
		return
	}

	if !identity.Role.IsAdmin() {
		account, err := s.accounts.Get(r.Context(), identity.AccountID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if account.TeamID == nil || *account.TeamID != teamID {
			writeJSON(w, http.StatusForbidden, map[string]string{
				"error": "you can only select a company for your own team",
			})
			return
		}
	}

	if err := s.companies.Assign(r.Context(), teamID, companyID); err != nil {
		s.countSlotAssignment("failure")
		writeError(w, r, err)
		return
	}

	s.countSlotAssignment("success")
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Company selected successfully.",
	})
}
