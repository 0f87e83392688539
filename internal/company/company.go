// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

// Package company manages companies and capacity-limited slot assignment.
package company

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrNotFound is returned when a requested company does not exist.
var ErrNotFound = errors.New("not found")

// ErrTeamNotFound is returned when the team side of an assignment does
// not exist.
var ErrTeamNotFound = errors.New("team not found")

// ErrCapacityExceeded is returned when a company has no free slots.
var ErrCapacityExceeded = errors.New("company capacity exceeded")

// ErrTeamAssigned is returned when a team already holds a company slot.
// Assignment is one-way; there is no unassign operation.
var ErrTeamAssigned = errors.New("team already assigned")

// ErrCapacityBelowAssigned is returned when an update would set the
// capacity below the number of already assigned teams.
var ErrCapacityBelowAssigned = errors.New("capacity below assigned count")

// Company represents a partner company offering a limited number of team
// slots. AssignedCount only ever increases, and never past MaxTeams.
type Company struct {
	ID            ulid.ULID
	Name          string
	MaxTeams      int
	AssignedCount int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Full returns true if every slot is taken.
func (c *Company) Full() bool {
	return c.AssignedCount >= c.MaxTeams
}

// CompanyRepository manages company persistence and slot assignment.
type CompanyRepository interface {
	// Create stores a new company.
	Create(ctx context.Context, company *Company) error

	// GetByID retrieves a company by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Company, error)

	// List returns all companies.
	List(ctx context.Context) ([]*Company, error)

	// Update sets the name and capacity of a company. Fails with
	// ErrCapacityBelowAssigned (wrapped) if maxTeams is below the current
	// assigned count at write time.
	Update(ctx context.Context, id ulid.ULID, name string, maxTeams int) (*Company, error)

	// Delete removes a company.
	Delete(ctx context.Context, id ulid.ULID) error

	// Assign claims a slot at the company for the team. The capacity
	// check-and-increment and the team's company reference are written in
	// one transaction of guarded updates, so concurrent claims on the
	// last slot have exactly one winner and no oversell is possible.
	// Fails with ErrNotFound, ErrTeamNotFound, ErrCapacityExceeded, or
	// ErrTeamAssigned (all wrapped).
	Assign(ctx context.Context, teamID, companyID ulid.ULID) error
}
