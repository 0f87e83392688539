// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

// Package postgres implements team repositories backed by PostgreSQL.
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

	"github.com/slotterhq/slotter/internal/store"
	"github.com/slotterhq/slotter/internal/team"
)

// TeamRepository implements team.TeamRepository using PostgreSQL.
type TeamRepository struct {
	db store.DB
}

// NewTeamRepository creates a new TeamRepository.
func NewTeamRepository(db store.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// Create inserts the team and links the member accounts in one
// transaction. The name unique constraint picks exactly one winner under
// concurrent creation; the member update is guarded on team_id still
// being NULL so an account grabbed by another team aborts the whole
// transaction.
func (r *TeamRepository) Create(ctx context.Context, t *team.Team, memberIDs []ulid.ULID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return oops.Code("TEAM_CREATE_FAILED").
			With("operation", "begin transaction").
			Wrap(err)
	}
	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // no-op after commit
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO teams (id, name, company_id, created_at)
		VALUES ($1, $2, NULL, $3)
	`, t.ID.String(), t.Name, t.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("TEAM_NAME_TAKEN").
				With("name", t.Name).
				Wrap(team.ErrNameTaken)
		}
		return oops.Code("TEAM_CREATE_FAILED").
			With("operation", "insert team").
			With("name", t.Name).
			Wrap(err)
	}

	ids := make([]string, len(memberIDs))
	for i, id := range memberIDs {
		ids[i] = id.String()
	}

	result, err := tx.Exec(ctx, `
		UPDATE accounts
		SET team_id = $1, updated_at = $2
		WHERE id = ANY($3) AND team_id IS NULL
	`, t.ID.String(), time.Now(), ids)
	if err != nil {
		return oops.Code("TEAM_CREATE_FAILED").
			With("operation", "link members").
			With("team_id", t.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() != int64(len(ids)) {
		return oops.Code("TEAM_MEMBER_CONFLICT").
			With("team_id", t.ID.String()).
			With("expected", len(ids)).
			With("linked", result.RowsAffected()).
			Wrap(team.ErrMemberConflict)
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.Code("TEAM_CREATE_FAILED").
			With("operation", "commit transaction").
			With("team_id", t.ID.String()).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a team by ID.
func (r *TeamRepository) GetByID(ctx context.Context, id ulid.ULID) (*team.Team, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, company_id, created_at
		FROM teams
		WHERE id = $1
	`, id.String())

	t, err := scanTeam(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TEAM_NOT_FOUND").
			With("id", id.String()).
			Wrap(team.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("TEAM_GET_BY_ID_FAILED").
			With("operation", "get team by id").
			With("id", id.String()).
			Wrap(err)
	}
	return t, nil
}

// List returns all teams with member usernames and company names resolved.
func (r *TeamRepository) List(ctx context.Context) ([]*team.Summary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT t.id, t.name, t.company_id, c.name
		FROM teams t
		LEFT JOIN companies c ON c.id = t.company_id
		ORDER BY t.created_at
	`)
	if err != nil {
		return nil, oops.Code("TEAM_LIST_FAILED").
			With("operation", "query teams").
			Wrap(err)
	}
	defer rows.Close()

	var summaries []*team.Summary
	byID := make(map[string]*team.Summary)
	for rows.Next() {
		var (
			idStr       string
			name        string
			companyID   *string
			companyName *string
		)
		if err := rows.Scan(&idStr, &name, &companyID, &companyName); err != nil {
			return nil, oops.Code("TEAM_LIST_FAILED").
				With("operation", "scan team row").
				Wrap(err)
		}

		id, err := ulid.Parse(idStr)
		if err != nil {
			return nil, oops.Code("TEAM_INVALID_ID").
				With("id", idStr).
				Wrap(err)
		}

		summary := &team.Summary{
			ID:          id,
			Name:        name,
			CompanyName: companyName,
		}
		if companyID != nil {
			parsed, err := ulid.Parse(*companyID)
			if err != nil {
				return nil, oops.Code("TEAM_INVALID_COMPANY_ID").
					With("company_id", *companyID).
					Wrap(err)
			}
			summary.CompanyID = &parsed
		}
		summaries = append(summaries, summary)
		byID[idStr] = summary
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("TEAM_LIST_FAILED").
			With("operation", "iterate team rows").
			Wrap(err)
	}

	memberRows, err := r.db.Query(ctx, `
		SELECT team_id, username
		FROM accounts
		WHERE team_id IS NOT NULL
		ORDER BY username
	`)
	if err != nil {
		return nil, oops.Code("TEAM_LIST_FAILED").
			With("operation", "query members").
			Wrap(err)
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var teamID, username string
		if err := memberRows.Scan(&teamID, &username); err != nil {
			return nil, oops.Code("TEAM_LIST_FAILED").
				With("operation", "scan member row").
				Wrap(err)
		}
		if summary, ok := byID[teamID]; ok {
			summary.Members = append(summary.Members, username)
		}
	}
	if err := memberRows.Err(); err != nil {
		return nil, oops.Code("TEAM_LIST_FAILED").
			With("operation", "iterate member rows").
			Wrap(err)
	}

	return summaries, nil
}

// scanTeam scans a single row into a Team.
// Callers are responsible for handling pgx.ErrNoRows.
func scanTeam(row pgx.Row) (*team.Team, error) {
	var (
		idStr        string
		name         string
		companyIDStr *string
		createdAt    time.Time
	)

	err := row.Scan(&idStr, &name, &companyIDStr, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("TEAM_SCAN_FAILED").
			With("operation", "scan team").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("TEAM_INVALID_ID").
			With("id", idStr).
			Wrap(err)
	}

	var companyID *ulid.ULID
	if companyIDStr != nil {
		parsed, err := ulid.Parse(*companyIDStr)
		if err != nil {
			return nil, oops.Code("TEAM_INVALID_COMPANY_ID").
				With("company_id", *companyIDStr).
				Wrap(err)
		}
		companyID = &parsed
	}

	return &team.Team{
		ID:        id,
		Name:      name,
		CompanyID: companyID,
		CreatedAt: createdAt,
	}, nil
}

// Compile-time interface check.
var _ team.TeamRepository = (*TeamRepository)(nil)
