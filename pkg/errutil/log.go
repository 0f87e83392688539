// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

// Package errutil provides helpers for logging and asserting on coded errors.
package errutil

import (
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs an error with structured context if it's an oops error.
// For oops errors, it extracts and logs the message, code, and context.
// For standard errors, it logs the error string. Extra key/value pairs
// are appended to the log record.
func LogError(logger *slog.Logger, msg string, err error, extra ...any) {
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs := []any{
			"error", oopsErr.Error(),
		}
		if code := oopsErr.Code(); code != "" {
			attrs = append(attrs, "code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			attrs = append(attrs, "context", ctx)
		}
		attrs = append(attrs, extra...)
		logger.Error(msg, attrs...)
	} else {
		logger.Error(msg, append([]any{"error", err.Error()}, extra...)...)
	}
}
