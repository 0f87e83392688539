// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Service provides registration, login, and password-reset operations.
type Service struct {
	accounts AccountRepository
	hasher   PasswordHasher
	tokens   *TokenService

	// resetBaseURL is the public base URL the reset link is built from.
	resetBaseURL string
}

// NewService creates a new Service.
func NewService(accounts AccountRepository, hasher PasswordHasher, tokens *TokenService, resetBaseURL string) *Service {
	return &Service{
		accounts:     accounts,
		hasher:       hasher,
		tokens:       tokens,
		resetBaseURL: strings.TrimRight(resetBaseURL, "/"),
	}
}

// dummyPasswordHash is used when no account matches the email so that login
// still performs one bcrypt comparison and response time stays uniform.
// This is NOT a real credential - the digest is deliberately mangled so it
// can never match any password.
//
//nolint:gosec // G101: intentionally fake hash for timing uniformity, not a credential.
const dummyPasswordHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUw"

// Register creates a new student account.
// Fails with AUTH_EMAIL_TAKEN or AUTH_USERNAME_TAKEN on a uniqueness
// conflict. No sensitive data is echoed back.
func (s *Service) Register(ctx context.Context, username, email, password string) (*Account, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, oops.Code("AUTH_INVALID_PASSWORD").
			With("min", MinPasswordLength).
			Errorf("password must be at least %d characters", MinPasswordLength)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	now := time.Now()
	account := &Account{
		ID:           ulid.Make(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         RoleStudent,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			return nil, oops.Code("AUTH_EMAIL_TAKEN").
				Errorf("email already registered")
		case errors.Is(err, ErrUsernameTaken):
			return nil, oops.Code("AUTH_USERNAME_TAKEN").
				Errorf("username already registered")
		default:
			return nil, oops.Code("AUTH_REGISTER_FAILED").
				With("operation", "create account").
				Wrap(err)
		}
	}

	return account, nil
}

// Login authenticates by email and password and issues a session token.
// Returns the token and the account on success.
// An unknown email and a wrong password produce the identical error, and a
// dummy hash comparison keeps the unknown-email path the same speed.
func (s *Service) Login(ctx context.Context, email, password string) (string, *Account, error) {
	account, lookupErr := s.accounts.GetByEmail(ctx, email)

	var targetHash string
	var accountExists bool

	if lookupErr != nil {
		if errors.Is(lookupErr, ErrNotFound) {
			targetHash = dummyPasswordHash
			accountExists = false
		} else {
			return "", nil, oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get account by email").
				Wrap(lookupErr)
		}
	} else {
		targetHash = account.PasswordHash
		accountExists = true
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if !accountExists {
			return "", nil, invalidCredentials()
		}
		return "", nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !accountExists || !valid {
		return "", nil, invalidCredentials()
	}

	token, err := s.tokens.Issue(account.ID, account.Role, account.Username)
	if err != nil {
		return "", nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue session token").
			Wrap(err)
	}

	return token, account, nil
}

// RequestPasswordReset issues a reset token for the account with the given
// email and returns the reset link to deliver out of band.
// An unknown email fails with AUTH_EMAIL_UNKNOWN. Revealing whether an
// email is registered is a deliberate product decision carried over from
// the frontend contract.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", oops.Code("AUTH_EMAIL_UNKNOWN").
				Errorf("no account with that email")
		}
		return "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}

	token, hash, err := GenerateResetToken()
	if err != nil {
		return "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "generate reset token").
			Wrap(err)
	}

	expiresAt := time.Now().Add(ResetTokenExpiry)
	if err := s.accounts.SetResetToken(ctx, account.ID, hash, expiresAt); err != nil {
		return "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "store reset token").
			With("account_id", account.ID.String()).
			Wrap(err)
	}

	return s.resetLink(token), nil
}

// ResetPassword redeems a reset token and sets a new password.
// Consumption is a single conditional write, so a token racing with itself
// succeeds at most once; invalid, expired, and already-used tokens are
// indistinguishable to the caller.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if rawToken == "" {
		return oops.Code("RESET_TOKEN_INVALID").Errorf("reset token cannot be empty")
	}
	if len(newPassword) < MinPasswordLength {
		return oops.Code("AUTH_INVALID_PASSWORD").
			With("min", MinPasswordLength).
			Errorf("password must be at least %d characters", MinPasswordLength)
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	_, err = s.accounts.ConsumeResetToken(ctx, HashResetToken(rawToken), newHash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("RESET_TOKEN_INVALID").
				Errorf("reset token is invalid or has expired")
		}
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "consume reset token").
			Wrap(err)
	}

	return nil
}

// Get retrieves an account by ID.
func (s *Service) Get(ctx context.Context, id ulid.ULID) (*Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("AUTH_ACCOUNT_NOT_FOUND").
				With("account_id", id.String()).
				Wrap(err)
		}
		return nil, oops.Code("AUTH_GET_FAILED").
			With("operation", "get account by id").
			With("account_id", id.String()).
			Wrap(err)
	}
	return account, nil
}

func (s *Service) resetLink(token string) string {
	return fmt.Sprintf("%s/password-reset/reset-password.html?token=%s", s.resetBaseURL, token)
}

func invalidCredentials() error {
	return oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid email or password")
}

func validateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
		return oops.Code("AUTH_INVALID_EMAIL").
			With("email", email).
			Errorf("email is not valid")
	}
	return nil
}
