// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

// Package auth provides account and credential primitives for Slotter.
//
// # Domain Types
//
// Account is the single identity record: username, email, bcrypt password
// hash, a typed Role, an optional pending password-reset token, and an
// optional back-reference to the team the account belongs to.
//
// # Services
//
// Service orchestrates registration, login, and the password-reset flow on
// top of AccountRepository, PasswordHasher, and TokenService. Session
// tokens are stateless signed JWTs; reset tokens are random, single-use,
// and time-boxed, with consumption performed as one conditional write so a
// token can never be redeemed twice.
package auth
