// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

// Package postgres implements auth repositories backed by PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/slotterhq/slotter/internal/auth"
	"github.com/slotterhq/slotter/internal/store"
)

// AccountRepository implements auth.AccountRepository using PostgreSQL.
type AccountRepository struct {
	db store.DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db store.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, username, email, password_hash, role,
	       reset_token_hash, reset_expires_at, team_id, created_at, updated_at`

// Create stores a new account. Uniqueness conflicts surface as
// auth.ErrEmailTaken or auth.ErrUsernameTaken based on the violated
// constraint, so concurrent registrations race safely at the database.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	var teamID *string
	if account.TeamID != nil {
		s := account.TeamID.String()
		teamID = &s
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO accounts (
			id, username, email, password_hash, role,
			reset_token_hash, reset_expires_at, team_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		account.ID.String(),
		account.Username,
		account.Email,
		account.PasswordHash,
		account.Role.String(),
		account.ResetTokenHash,
		account.ResetExpiresAt,
		teamID,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			switch pgErr.ConstraintName {
			case "accounts_email_key":
				return oops.Code("ACCOUNT_EMAIL_TAKEN").
					With("email", account.Email).
					Wrap(auth.ErrEmailTaken)
			case "accounts_username_key":
				return oops.Code("ACCOUNT_USERNAME_TAKEN").
					With("username", account.Username).
					Wrap(auth.ErrUsernameTaken)
			}
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("username", account.Username).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
	`, id.String())

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_ID_FAILED").
			With("operation", "get account by id").
			With("id", id.String()).
			Wrap(err)
	}
	return account, nil
}

// GetByUsername retrieves an account by username (exact match).
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*auth.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE username = $1
	`, username)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("username", username).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_USERNAME_FAILED").
			With("operation", "get account by username").
			With("username", username).
			Wrap(err)
	}
	return account, nil
}

// GetByEmail retrieves an account by email (exact match, as stored).
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE email = $1
	`, email)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_EMAIL_FAILED").
			With("operation", "get account by email").
			With("email", email).
			Wrap(err)
	}
	return account, nil
}

// GetByUsernames retrieves the accounts matching the given usernames.
// Missing usernames are simply absent from the result.
func (r *AccountRepository) GetByUsernames(ctx context.Context, usernames []string) ([]*auth.Account, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE username = ANY($1)
	`, usernames)
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_USERNAMES_FAILED").
			With("operation", "get accounts by usernames").
			Wrap(err)
	}
	defer rows.Close()

	var accounts []*auth.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, oops.Code("ACCOUNT_GET_BY_USERNAMES_FAILED").
				With("operation", "scan account row").
				Wrap(err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_USERNAMES_FAILED").
			With("operation", "iterate account rows").
			Wrap(err)
	}
	return accounts, nil
}

// SetResetToken stores a pending reset token hash and expiry,
// overwriting any prior pending token so only the latest is valid.
func (r *AccountRepository) SetResetToken(ctx context.Context, id ulid.ULID, tokenHash string, expiresAt time.Time) error {
	result, err := r.db.Exec(ctx, `
		UPDATE accounts
		SET reset_token_hash = $2, reset_expires_at = $3, updated_at = $4
		WHERE id = $1
	`, id.String(), tokenHash, expiresAt, time.Now())
	if err != nil {
		return oops.Code("ACCOUNT_SET_RESET_TOKEN_FAILED").
			With("operation", "set reset token").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// ConsumeResetToken redeems a reset token in one conditional update: the
// new password hash is written and both reset columns are cleared only
// while the stored hash still matches and the expiry is in the future.
// Two racing calls with the same token see exactly one row affected.
func (r *AccountRepository) ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string) (ulid.ULID, error) {
	var idStr string
	err := r.db.QueryRow(ctx, `
		UPDATE accounts
		SET password_hash = $2,
		    reset_token_hash = NULL,
		    reset_expires_at = NULL,
		    updated_at = $3
		WHERE reset_token_hash = $1
		  AND reset_expires_at > now()
		RETURNING id
	`, tokenHash, newPasswordHash, time.Now()).Scan(&idStr)
	if errors.Is(err, pgx.ErrNoRows) {
		return ulid.ULID{}, oops.Code("RESET_TOKEN_NOT_FOUND").
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return ulid.ULID{}, oops.Code("ACCOUNT_CONSUME_RESET_TOKEN_FAILED").
			With("operation", "consume reset token").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return ulid.ULID{}, oops.Code("ACCOUNT_INVALID_ID").
			With("operation", "parse account id").
			With("id", idStr).
			Wrap(err)
	}
	return id, nil
}

// scanAccount scans a single row into an Account.
// Callers are responsible for handling pgx.ErrNoRows.
func scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		idStr          string
		username       string
		email          string
		passwordHash   string
		roleStr        string
		resetTokenHash *string
		resetExpiresAt *time.Time
		teamIDStr      *string
		createdAt      time.Time
		updatedAt      time.Time
	)

	err := row.Scan(
		&idStr,
		&username,
		&email,
		&passwordHash,
		&roleStr,
		&resetTokenHash,
		&resetExpiresAt,
		&teamIDStr,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("ACCOUNT_SCAN_FAILED").
			With("operation", "scan account").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_ID").
			With("operation", "parse account id").
			With("id", idStr).
			Wrap(err)
	}

	role, err := auth.ParseRole(roleStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_ROLE").
			With("id", idStr).
			With("role", roleStr).
			Wrap(err)
	}

	var teamID *ulid.ULID
	if teamIDStr != nil {
		parsed, err := ulid.Parse(*teamIDStr)
		if err != nil {
			return nil, oops.Code("ACCOUNT_INVALID_TEAM_ID").
				With("operation", "parse team id").
				With("team_id", *teamIDStr).
				Wrap(err)
		}
		teamID = &parsed
	}

	return &auth.Account{
		ID:             id,
		Username:       username,
		Email:          email,
		PasswordHash:   passwordHash,
		Role:           role,
		ResetTokenHash: resetTokenHash,
		ResetExpiresAt: resetExpiresAt,
		TeamID:         teamID,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}

// Compile-time interface check.
var _ auth.AccountRepository = (*AccountRepository)(nil)
