// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

package httpapi

import (
	"net/http"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleRegister creates a new student account.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if _, err := s.accounts.Register(r.Context(), req.Username, req.Email, req.Password); err != nil {
		writeError(w, r, err)
		return
	}

	s.countRegistration()
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "User registered successfully.",
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin authenticates by email and password and returns a session
// token with the role and username embedded, so the client does not need
// a follow-up identity call.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	token, account, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.countLogin("failure")
		writeError(w, r, err)
		return
	}

	s.countLogin("success")
	writeJSON(w, http.StatusOK, map[string]string{
		"token":    token,
		"role":     account.Role.String(),
		"username": account.Username,
	})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// handleForgotPassword issues a reset token and returns the reset link.
// Link delivery is the caller's responsibility.
func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	resetLink, err := s.accounts.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "Password reset link generated.",
		"resetLink": resetLink,
	})
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// handleResetPassword redeems a reset token and sets the new password.
func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := s.accounts.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Password has been reset successfully.",
	})
}

// handleWhoami returns the caller's account summary.
func (s *Server) handleWhoami(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error": "authentication required",
		})
		return
	}

	account, err := s.accounts.Get(r.Context(), identity.AccountID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := map[string]any{
		"id":       account.ID.String(),
		"username": account.Username,
		"email":    account.Email,
		"role":     account.Role.String(),
	}
	if account.TeamID != nil {
		resp["teamId"] = account.TeamID.String()
	}
	writeJSON(w, http.StatusOK, resp)
}
