// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

package team

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/slotterhq/slotter/internal/auth"
)

// Registry provides team formation and listing.
type Registry struct {
	teams    TeamRepository
	accounts auth.AccountRepository
}

// NewRegistry creates a new Registry.
func NewRegistry(teams TeamRepository, accounts auth.AccountRepository) *Registry {
	return &Registry{
		teams:    teams,
		accounts: accounts,
	}
}

// Form creates a team from the founder plus the listed member usernames.
// The member set is {founder} with members merged in, trimmed and
// deduplicated. Every username must resolve to an account not already on
// a team. Name uniqueness and membership linking are enforced in one
// repository transaction, so concurrent formation with the same name has
// exactly one winner and a failed formation leaves no partial state.
func (r *Registry) Form(ctx context.Context, name, founder string, members []string) (*Team, error) {
	name = strings.TrimSpace(name)
	founder = strings.TrimSpace(founder)

	if name == "" {
		return nil, oops.Code("TEAM_INVALID_NAME").Errorf("team name cannot be empty")
	}
	if founder == "" {
		return nil, oops.Code("TEAM_INVALID_FOUNDER").Errorf("founder username cannot be empty")
	}

	usernames := memberSet(founder, members)

	accounts, err := r.accounts.GetByUsernames(ctx, usernames)
	if err != nil {
		return nil, oops.Code("TEAM_FORM_FAILED").
			With("operation", "resolve usernames").
			Wrap(err)
	}
	if len(accounts) != len(usernames) {
		return nil, oops.Code("TEAM_MEMBER_UNKNOWN").
			With("requested", len(usernames)).
			With("resolved", len(accounts)).
			Errorf("one or more usernames do not exist")
	}

	memberIDs := make([]ulid.ULID, 0, len(accounts))
	for _, account := range accounts {
		if account.OnTeam() {
			return nil, oops.Code("TEAM_MEMBER_TAKEN").
				With("username", account.Username).
				Errorf("%s is already on a team", account.Username)
		}
		memberIDs = append(memberIDs, account.ID)
	}

	team := &Team{
		ID:        ulid.Make(),
		Name:      name,
		CreatedAt: time.Now(),
	}

	if err := r.teams.Create(ctx, team, memberIDs); err != nil {
		switch {
		case errors.Is(err, ErrNameTaken):
			return nil, oops.Code("TEAM_NAME_TAKEN").
				With("name", name).
				Errorf("team name already taken")
		case errors.Is(err, ErrMemberConflict):
			return nil, oops.Code("TEAM_MEMBER_TAKEN").
				Errorf("one or more members joined another team")
		default:
			return nil, oops.Code("TEAM_FORM_FAILED").
				With("operation", "create team").
				With("name", name).
				Wrap(err)
		}
	}

	return team, nil
}

// List returns all teams with members and company resolved.
func (r *Registry) List(ctx context.Context) ([]*Summary, error) {
	teams, err := r.teams.List(ctx)
	if err != nil {
		return nil, oops.Code("TEAM_LIST_FAILED").
			With("operation", "list teams").
			Wrap(err)
	}
	return teams, nil
}

// Get retrieves a team by ID.
func (r *Registry) Get(ctx context.Context, id ulid.ULID) (*Team, error) {
	team, err := r.teams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("TEAM_NOT_FOUND").
				With("team_id", id.String()).
				Wrap(err)
		}
		return nil, oops.Code("TEAM_GET_FAILED").
			With("operation", "get team by id").
			With("team_id", id.String()).
			Wrap(err)
	}
	return team, nil
}

// memberSet merges the founder and members into a trimmed, deduplicated
// username list with stable ordering.
func memberSet(founder string, members []string) []string {
	seen := map[string]struct{}{founder: {}}
	result := []string{founder}
	for _, m := range members {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		result = append(result, m)
	}
	sort.Strings(result)
	return result
}
