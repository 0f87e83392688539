// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// usernameRegex matches usernames that:
// - Start with a letter (a-z, A-Z)
// - Contain only letters, numbers, and underscores
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Role is the authorization role of an account.
type Role string

// Valid roles. Anything else is rejected at parse time.
const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// ParseRole validates a raw role string against the role enum.
// Arbitrary strings are rejected rather than trusted.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent:
		return RoleStudent, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", oops.Code("AUTH_INVALID_ROLE").
			With("role", s).
			Errorf("unknown role %q", s)
	}
}

// IsAdmin reports whether the role grants admin access.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// String returns the role as its stored string form.
func (r Role) String() string {
	return string(r)
}

// Account represents a registered account.
type Account struct {
	ID           ulid.ULID
	Username     string
	Email        string
	PasswordHash string
	Role         Role

	// ResetTokenHash and ResetExpiresAt hold the pending password-reset
	// token, if any. Both are nil when no reset is pending.
	ResetTokenHash *string
	ResetExpiresAt *time.Time

	// TeamID references the team this account belongs to, if any.
	TeamID *ulid.ULID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OnTeam returns true if the account already belongs to a team.
func (a *Account) OnTeam() bool {
	return a.TeamID != nil
}

// ValidateUsername validates a username against rules.
// Username requirements:
// - Length: MinUsernameLength to MaxUsernameLength characters
// - Must start with a letter
// - Can contain only letters (a-z, A-Z), numbers (0-9), and underscores (_)
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("AUTH_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("min", MinUsernameLength).
			Errorf("username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("AUTH_INVALID_USERNAME").
			Errorf("username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// Create stores a new account.
	// Returns ErrEmailTaken or ErrUsernameTaken (wrapped) on a
	// uniqueness violation, regardless of interleaving with other writers.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByUsername retrieves an account by username (exact match).
	GetByUsername(ctx context.Context, username string) (*Account, error)

	// GetByEmail retrieves an account by email (exact match, as stored).
	// Returns ErrNotFound if no account has the given email.
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// GetByUsernames retrieves the accounts for the given usernames.
	// The result may be shorter than the input when some usernames do not
	// exist; callers compare lengths to detect unknown usernames.
	GetByUsernames(ctx context.Context, usernames []string) ([]*Account, error)

	// SetResetToken stores a pending reset token hash and expiry on an
	// account, overwriting any prior pending token.
	SetResetToken(ctx context.Context, id ulid.ULID, tokenHash string, expiresAt time.Time) error

	// ConsumeResetToken redeems a reset token: in one conditional write it
	// sets the new password hash and clears the reset columns, succeeding
	// only if the stored token hash still matches and has not expired.
	// Returns the account ID on success, ErrNotFound (wrapped) if the
	// token is unknown, expired, or already consumed.
	ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string) (ulid.ULID, error)
}
