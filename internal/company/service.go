// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

package company

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Allocator provides company CRUD and atomic slot assignment.
type Allocator struct {
	companies CompanyRepository
}

// NewAllocator creates a new Allocator.
func NewAllocator(companies CompanyRepository) *Allocator {
	return &Allocator{companies: companies}
}

// List returns all companies with their capacity and assigned count.
func (a *Allocator) List(ctx context.Context) ([]*Company, error) {
	companies, err := a.companies.List(ctx)
	if err != nil {
		return nil, oops.Code("COMPANY_LIST_FAILED").
			With("operation", "list companies").
			Wrap(err)
	}
	return companies, nil
}

// Get retrieves a company by ID.
func (a *Allocator) Get(ctx context.Context, id ulid.ULID) (*Company, error) {
	company, err := a.companies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("COMPANY_NOT_FOUND").
				With("company_id", id.String()).
				Wrap(err)
		}
		return nil, oops.Code("COMPANY_GET_FAILED").
			With("operation", "get company by id").
			With("company_id", id.String()).
			Wrap(err)
	}
	return company, nil
}

// Create stores a new company with zero assigned teams.
func (a *Allocator) Create(ctx context.Context, name string, maxTeams int) (*Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, oops.Code("COMPANY_INVALID_NAME").Errorf("company name cannot be empty")
	}
	if maxTeams < 0 {
		return nil, oops.Code("COMPANY_INVALID_CAPACITY").
			With("max_teams", maxTeams).
			Errorf("capacity cannot be negative")
	}

	now := time.Now()
	company := &Company{
		ID:        ulid.Make(),
		Name:      name,
		MaxTeams:  maxTeams,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := a.companies.Create(ctx, company); err != nil {
		return nil, oops.Code("COMPANY_CREATE_FAILED").
			With("operation", "create company").
			With("name", name).
			Wrap(err)
	}
	return company, nil
}

// Update changes a company's name and capacity. An update that would drop
// the capacity below the current assigned count is rejected rather than
// clamped, so the capacity invariant keeps holding.
func (a *Allocator) Update(ctx context.Context, id ulid.ULID, name string, maxTeams int) (*Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, oops.Code("COMPANY_INVALID_NAME").Errorf("company name cannot be empty")
	}
	if maxTeams < 0 {
		return nil, oops.Code("COMPANY_INVALID_CAPACITY").
			With("max_teams", maxTeams).
			Errorf("capacity cannot be negative")
	}

	company, err := a.companies.Update(ctx, id, name, maxTeams)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, oops.Code("COMPANY_NOT_FOUND").
				With("company_id", id.String()).
				Wrap(err)
		case errors.Is(err, ErrCapacityBelowAssigned):
			return nil, oops.Code("COMPANY_CAPACITY_BELOW_ASSIGNED").
				With("company_id", id.String()).
				With("max_teams", maxTeams).
				Errorf("capacity cannot be set below the number of assigned teams")
		default:
			return nil, oops.Code("COMPANY_UPDATE_FAILED").
				With("operation", "update company").
				With("company_id", id.String()).
				Wrap(err)
		}
	}
	return company, nil
}

// Delete removes a company.
func (a *Allocator) Delete(ctx context.Context, id ulid.ULID) error {
	if err := a.companies.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("COMPANY_NOT_FOUND").
				With("company_id", id.String()).
				Wrap(err)
		}
		return oops.Code("COMPANY_DELETE_FAILED").
			With("operation", "delete company").
			With("company_id", id.String()).
			Wrap(err)
	}
	return nil
}

// Assign claims a slot at the company for the team. Two teams racing for
// the last slot see exactly one success; the loser gets COMPANY_FULL.
// There is no unassign path, so a team's assignment is final.
func (a *Allocator) Assign(ctx context.Context, teamID, companyID ulid.ULID) error {
	err := a.companies.Assign(ctx, teamID, companyID)
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return oops.Code("COMPANY_NOT_FOUND").
			With("company_id", companyID.String()).
			Wrap(err)
	case errors.Is(err, ErrTeamNotFound):
		return oops.Code("TEAM_NOT_FOUND").
			With("team_id", teamID.String()).
			Wrap(err)
	case errors.Is(err, ErrCapacityExceeded):
		return oops.Code("COMPANY_FULL").
			With("company_id", companyID.String()).
			Errorf("company has no remaining slots")
	case errors.Is(err, ErrTeamAssigned):
		return oops.Code("TEAM_ALREADY_ASSIGNED").
			With("team_id", teamID.String()).
			Errorf("team is already assigned to a company")
	default:
		return oops.Code("COMPANY_ASSIGN_FAILED").
			With("operation", "assign team to company").
			With("team_id", teamID.String()).
			With("company_id", companyID.String()).
			Wrap(err)
	}
}
