// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

// Package postgres implements company repositories backed by PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/slotterhq/slotter/internal/company"
	"github.com/slotterhq/slotter/internal/store"
)

// CompanyRepository implements company.CompanyRepository using PostgreSQL.
type CompanyRepository struct {
	db store.DB
}

// NewCompanyRepository creates a new CompanyRepository.
func NewCompanyRepository(db store.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

const companyColumns = `id, name, max_teams, assigned_count, created_at, updated_at`

// Create stores a new company.
func (r *CompanyRepository) Create(ctx context.Context, c *company.Company) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO companies (id, name, max_teams, assigned_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		c.ID.String(),
		c.Name,
		c.MaxTeams,
		c.AssignedCount,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return oops.Code("COMPANY_CREATE_FAILED").
			With("operation", "insert company").
			With("name", c.Name).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a company by ID.
func (r *CompanyRepository) GetByID(ctx context.Context, id ulid.ULID) (*company.Company, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+companyColumns+`
		FROM companies
		WHERE id = $1
	`, id.String())

	c, err := scanCompany(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("COMPANY_NOT_FOUND").
			With("id", id.String()).
			Wrap(company.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("COMPANY_GET_BY_ID_FAILED").
			With("operation", "get company by id").
			With("id", id.String()).
			Wrap(err)
	}
	return c, nil
}

// List returns all companies.
func (r *CompanyRepository) List(ctx context.Context) ([]*company.Company, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+companyColumns+`
		FROM companies
		ORDER BY created_at
	`)
	if err != nil {
		return nil, oops.Code("COMPANY_LIST_FAILED").
			With("operation", "query companies").
			Wrap(err)
	}
	defer rows.Close()

	var companies []*company.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, oops.Code("COMPANY_LIST_FAILED").
				With("operation", "scan company row").
				Wrap(err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("COMPANY_LIST_FAILED").
			With("operation", "iterate company rows").
			Wrap(err)
	}
	return companies, nil
}

// Update sets the name and capacity, guarded so the capacity can never
// drop below the assigned count that holds at write time.
func (r *CompanyRepository) Update(ctx context.Context, id ulid.ULID, name string, maxTeams int) (*company.Company, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE companies
		SET name = $2, max_teams = $3, updated_at = $4
		WHERE id = $1 AND assigned_count <= $3
		RETURNING `+companyColumns+`
	`, id.String(), name, maxTeams, time.Now())

	c, err := scanCompany(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Guard failed: distinguish a missing company from a capacity
		// below the assigned count.
		var exists bool
		checkErr := r.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM companies WHERE id = $1)`,
			id.String()).Scan(&exists)
		if checkErr != nil {
			return nil, oops.Code("COMPANY_UPDATE_FAILED").
				With("operation", "diagnose update guard").
				With("id", id.String()).
				Wrap(checkErr)
		}
		if !exists {
			return nil, oops.Code("COMPANY_NOT_FOUND").
				With("id", id.String()).
				Wrap(company.ErrNotFound)
		}
		return nil, oops.Code("COMPANY_CAPACITY_BELOW_ASSIGNED").
			With("id", id.String()).
			With("max_teams", maxTeams).
			Wrap(company.ErrCapacityBelowAssigned)
	}
	if err != nil {
		return nil, oops.Code("COMPANY_UPDATE_FAILED").
			With("operation", "update company").
			With("id", id.String()).
			Wrap(err)
	}
	return c, nil
}

// Delete removes a company.
func (r *CompanyRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.db.Exec(ctx, `
		DELETE FROM companies WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("COMPANY_DELETE_FAILED").
			With("operation", "delete company").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("COMPANY_NOT_FOUND").
			With("id", id.String()).
			Wrap(company.ErrNotFound)
	}
	return nil
}

// Assign claims a slot in one transaction of two guarded updates. The
// increment only succeeds while assigned_count is below max_teams, and
// the team link only succeeds while the team is unassigned. Either guard
// failing rolls back the whole transaction, so the counter and the team
// references can never diverge.
func (r *CompanyRepository) Assign(ctx context.Context, teamID, companyID ulid.ULID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return oops.Code("COMPANY_ASSIGN_FAILED").
			With("operation", "begin transaction").
			Wrap(err)
	}
	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // no-op after commit
	}()

	result, err := tx.Exec(ctx, `
		UPDATE companies
		SET assigned_count = assigned_count + 1, updated_at = $2
		WHERE id = $1 AND assigned_count < max_teams
	`, companyID.String(), time.Now())
	if err != nil {
		return oops.Code("COMPANY_ASSIGN_FAILED").
			With("operation", "increment assigned count").
			With("company_id", companyID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		var exists bool
		checkErr := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM companies WHERE id = $1)`,
			companyID.String()).Scan(&exists)
		if checkErr != nil {
			return oops.Code("COMPANY_ASSIGN_FAILED").
				With("operation", "diagnose capacity guard").
				With("company_id", companyID.String()).
				Wrap(checkErr)
		}
		if !exists {
			return oops.Code("COMPANY_NOT_FOUND").
				With("company_id", companyID.String()).
				Wrap(company.ErrNotFound)
		}
		return oops.Code("COMPANY_FULL").
			With("company_id", companyID.String()).
			Wrap(company.ErrCapacityExceeded)
	}

	result, err = tx.Exec(ctx, `
		UPDATE teams
		SET company_id = $1
		WHERE id = $2 AND company_id IS NULL
	`, companyID.String(), teamID.String())
	if err != nil {
		return oops.Code("COMPANY_ASSIGN_FAILED").
			With("operation", "link team").
			With("team_id", teamID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		var exists bool
		checkErr := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM teams WHERE id = $1)`,
			teamID.String()).Scan(&exists)
		if checkErr != nil {
			return oops.Code("COMPANY_ASSIGN_FAILED").
				With("operation", "diagnose team guard").
				With("team_id", teamID.String()).
				Wrap(checkErr)
		}
		if !exists {
			return oops.Code("TEAM_NOT_FOUND").
				With("team_id", teamID.String()).
				Wrap(company.ErrTeamNotFound)
		}
		return oops.Code("TEAM_ALREADY_ASSIGNED").
			With("team_id", teamID.String()).
			Wrap(company.ErrTeamAssigned)
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.Code("COMPANY_ASSIGN_FAILED").
			With("operation", "commit transaction").
			With("team_id", teamID.String()).
			With("company_id", companyID.String()).
			Wrap(err)
	}
	return nil
}

// scanCompany scans a single row into a Company.
// Callers are responsible for handling pgx.ErrNoRows.
func scanCompany(row pgx.Row) (*company.Company, error) {
	var (
		idStr         string
		name          string
		maxTeams      int
		assignedCount int
		createdAt     time.Time
		updatedAt     time.Time
	)

	err := row.Scan(&idStr, &name, &maxTeams, &assignedCount, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("COMPANY_SCAN_FAILED").
			With("operation", "scan company").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("COMPANY_INVALID_ID").
			With("id", idStr).
			Wrap(err)
	}

	return &company.Company{
		ID:            id,
		Name:          name,
		MaxTeams:      maxTeams,
		AssignedCount: assignedCount,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}

// Compile-time interface check.
var _ company.CompanyRepository = (*CompanyRepository)(nil)
