// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/slotterhq/slotter/internal/auth"
)

// MockPasswordHasher is a mock implementation of auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a mock and registers expectation
// assertions with the test's cleanup.
func NewMockPasswordHasher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Verify(password, hash string) (bool, error) {
	args := m.Called(password, hash)
	return args.Bool(0), args.Error(1)
}

// Compile-time interface check.
var _ auth.PasswordHasher = (*MockPasswordHasher)(nil)
