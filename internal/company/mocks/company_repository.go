// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

// Package mocks provides testify mocks for the company package interfaces.
package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/slotterhq/slotter/internal/company"
)

// MockCompanyRepository is a mock implementation of company.CompanyRepository.
type MockCompanyRepository struct {
	mock.Mock
}

// NewMockCompanyRepository creates a mock and registers expectation
// assertions with the test's cleanup.
func NewMockCompanyRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCompanyRepository {
	m := &MockCompanyRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCompanyRepository) Create(ctx context.Context, c *company.Company) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCompanyRepository) GetByID(ctx context.Context, id ulid.ULID) (*company.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*company.Company), args.Error(1)
}

func (m *MockCompanyRepository) List(ctx context.Context) ([]*company.Company, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*company.Company), args.Error(1)
}

func (m *MockCompanyRepository) Update(ctx context.Context, id ulid.ULID, name string, maxTeams int) (*company.Company, error) {
	args := m.Called(ctx, id, name, maxTeams)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*company.Company), args.Error(1)
}

func (m *MockCompanyRepository) Delete(ctx context.Context, id ulid.ULID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCompanyRepository) Assign(ctx context.Context, teamID, companyID ulid.ULID) error {
	args := m.Called(ctx, teamID, companyID)
	return args.Error(0)
}

// Compile-time interface check.
var _ company.CompanyRepository = (*MockCompanyRepository)(nil)
