// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

// Package mocks provides testify mocks for the team package interfaces.
package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/slotterhq/slotter/internal/team"
)

// MockTeamRepository is a mock implementation of team.TeamRepository.
type MockTeamRepository struct {
	mock.Mock
}

// NewMockTeamRepository creates a mock and registers expectation
// assertions with the test's cleanup.
func NewMockTeamRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTeamRepository {
	m := &MockTeamRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTeamRepository) Create(ctx context.Context, t *team.Team, memberIDs []ulid.ULID) error {
	args := m.Called(ctx, t, memberIDs)
	return args.Error(0)
}

func (m *MockTeamRepository) GetByID(ctx context.Context, id ulid.ULID) (*team.Team, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*team.Team), args.Error(1)
}

func (m *MockTeamRepository) List(ctx context.Context) ([]*team.Summary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*team.Summary), args.Error(1)
}

// Compile-time interface check.
var _ team.TeamRepository = (*MockTeamRepository)(nil)
