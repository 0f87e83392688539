// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested account does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailTaken is returned when an email address is already registered.
var ErrEmailTaken = errors.New("email already registered")

// ErrUsernameTaken is returned when a username is already registered.
var ErrUsernameTaken = errors.New("username already registered")
