// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/slotterhq/slotter/pkg/errutil"
)

// statusByCode maps stable error codes to HTTP statuses. Codes absent
// from the map are treated as internal failures and answered with a
// generic 500 so internal error text never reaches clients.
var statusByCode = map[string]int{
	// Validation and conflicts on public surfaces answer 400, matching
	// the error contract the frontend was built against.
	"AUTH_INVALID_USERNAME":           http.StatusBadRequest,
	"AUTH_INVALID_EMAIL":              http.StatusBadRequest,
	"AUTH_INVALID_PASSWORD":           http.StatusBadRequest,
	"AUTH_EMAIL_TAKEN":                http.StatusBadRequest,
	"AUTH_USERNAME_TAKEN":             http.StatusBadRequest,
	"RESET_TOKEN_INVALID":             http.StatusBadRequest,
	"TEAM_INVALID_NAME":               http.StatusBadRequest,
	"TEAM_INVALID_FOUNDER":            http.StatusBadRequest,
	"TEAM_NAME_TAKEN":                 http.StatusBadRequest,
	"TEAM_MEMBER_UNKNOWN":             http.StatusBadRequest,
	"TEAM_MEMBER_TAKEN":               http.StatusBadRequest,
	"TEAM_ALREADY_ASSIGNED":           http.StatusBadRequest,
	"COMPANY_INVALID_NAME":            http.StatusBadRequest,
	"COMPANY_INVALID_CAPACITY":        http.StatusBadRequest,
	"COMPANY_CAPACITY_BELOW_ASSIGNED": http.StatusBadRequest,
	"COMPANY_FULL":                    http.StatusBadRequest,

	"AUTH_INVALID_CREDENTIALS": http.StatusUnauthorized,
	"AUTH_TOKEN_INVALID":       http.StatusUnauthorized,

	"AUTH_FORBIDDEN": http.StatusForbidden,

	"AUTH_EMAIL_UNKNOWN":     http.StatusNotFound,
	"AUTH_ACCOUNT_NOT_FOUND": http.StatusNotFound,
	"TEAM_NOT_FOUND":         http.StatusNotFound,
	"COMPANY_NOT_FOUND":      http.StatusNotFound,
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // client may have disconnected; nothing useful to do
	json.NewEncoder(w).Encode(data)
}

// writeError maps a service error to an HTTP response. Known codes keep
// their message; everything else is logged and answered generically.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if oopsErr, ok := oops.AsOops(err); ok {
		code, _ := oopsErr.Code().(string)
		if status, found := statusByCode[code]; found {
			writeJSON(w, status, map[string]string{"error": oopsErr.Error()})
			return
		}
	}

	errutil.LogError(slog.Default(), "request failed", err,
		"method", r.Method, "path", r.URL.Path)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

// decodeJSON decodes the request body into dst, rejecting unknown
// fields and trailing garbage.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return oops.Code("REQUEST_INVALID_BODY").Wrap(err)
	}
	return nil
}

// writeBadRequest answers 400 with the given message.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": message})
}
