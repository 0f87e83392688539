// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

// Package team manages team formation and membership.
package team

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrNotFound is returned when a requested team does not exist.
var ErrNotFound = errors.New("not found")

// ErrNameTaken is returned when a team name is already in use.
var ErrNameTaken = errors.New("team name already taken")

// ErrMemberConflict is returned when a member is already on another team
// at commit time.
var ErrMemberConflict = errors.New("member already on a team")

// Team represents a formed team. Membership is fixed at creation and
// recorded as back-references on the member accounts.
type Team struct {
	ID        ulid.ULID
	Name      string
	CompanyID *ulid.ULID
	CreatedAt time.Time
}

// Summary is a team with its member usernames and assigned company
// resolved for display.
type Summary struct {
	ID          ulid.ULID
	Name        string
	Members     []string
	CompanyID   *ulid.ULID
	CompanyName *string
}

// TeamRepository manages team persistence.
type TeamRepository interface {
	// Create inserts the team and links every member account to it in a
	// single transaction. Returns ErrNameTaken (wrapped) if the name is
	// already in use, under any interleaving with concurrent creators,
	// and ErrMemberConflict (wrapped) if any member was linked to a team
	// since it was resolved. On failure no partial state remains.
	Create(ctx context.Context, team *Team, memberIDs []ulid.ULID) error

	// GetByID retrieves a team by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Team, error)

	// List returns all teams with member usernames and company names
	// resolved.
	List(ctx context.Context) ([]*Summary, error)
}
