// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

// Package httpapi exposes the Slotter HTTP/JSON surface: registration,
// login, the password-reset flow, team signup, and company slot
// assignment, with bearer-token authentication and admin gating.
package httpapi
