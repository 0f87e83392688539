// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotterhq/slotter/internal/company"
)

var companyCols = []string{"id", "name", "max_teams", "assigned_count", "created_at", "updated_at"}

func companyRow(id ulid.ULID, name string, maxTeams, assigned int) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(companyCols).
		AddRow(id.String(), name, maxTeams, assigned, now, now)
}

func TestCompanyRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	defer mock.Close()

	now := time.Now()
	c := &company.Company{
		ID:        ulid.Make(),
		Name:      "Acme",
		MaxTeams:  3,
		CreatedAt: now,
		UpdatedAt: now,
	}

	mock.ExpectExec(`INSERT INTO companies`).
		WithArgs(c.ID.String(), "Acme", 3, 0, now, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewCompanyRepository(mock)
	require.NoError(t, repo.Create(context.Background(), c))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompanyRepository_GetByID(t *testing.T) {
	id := ulid.Make()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT (.+) FROM companies`).
					WithArgs(id.String()).
					WillReturnRows(companyRow(id, "Acme", 3, 1))
			},
		},
		{
			name: "not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT (.+) FROM companies`).
					WithArgs(id.String()).
					WillReturnRows(pgxmock.NewRows(companyCols))
			},
			wantErr: company.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewCompanyRepository(mock)
			got, err := repo.GetByID(context.Background(), id)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
			} else {
				require.NoError(t, err)
				assert.Equal(t, "Acme", got.Name)
				assert.Equal(t, 3, got.MaxTeams)
				assert.Equal(t, 1, got.AssignedCount)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestCompanyRepository_Update(t *testing.T) {
	id := ulid.Make()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "successful update",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`UPDATE companies`).
					WithArgs(id.String(), "Acme Corp", 5, pgxmock.AnyArg()).
					WillReturnRows(companyRow(id, "Acme Corp", 5, 2))
			},
		},
		{
			name: "company missing",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`UPDATE companies`).
					WithArgs(id.String(), "Acme Corp", 5, pgxmock.AnyArg()).
					WillReturnRows(pgxmock.NewRows(companyCols))
				mock.ExpectQuery(`SELECT EXISTS`).
					WithArgs(id.String()).
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
			},
			wantErr: company.ErrNotFound,
		},
		{
			name: "capacity below assigned count",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`UPDATE companies`).
					WithArgs(id.String(), "Acme Corp", 5, pgxmock.AnyArg()).
					WillReturnRows(pgxmock.NewRows(companyCols))
				mock.ExpectQuery(`SELECT EXISTS`).
					WithArgs(id.String()).
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
			},
			wantErr: company.ErrCapacityBelowAssigned,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewCompanyRepository(mock)
			got, err := repo.Update(context.Background(), id, "Acme Corp", 5)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "expected %v in chain, got %v", tt.wantErr, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "Acme Corp", got.Name)
				assert.Equal(t, 5, got.MaxTeams)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestCompanyRepository_Delete(t *testing.T) {
	id := ulid.Make()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "successful delete",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`DELETE FROM companies`).
					WithArgs(id.String()).
					WillReturnResult(pgxmock.NewResult("DELETE", 1))
			},
		},
		{
			name: "not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`DELETE FROM companies`).
					WithArgs(id.String()).
					WillReturnResult(pgxmock.NewResult("DELETE", 0))
			},
			wantErr: company.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewCompanyRepository(mock)
			err = repo.Delete(context.Background(), id)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
			} else {
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestCompanyRepository_Assign(t *testing.T) {
	teamID := ulid.Make()
	companyID := ulid.Make()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "successful assignment",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE companies`).
					WithArgs(companyID.String(), pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				mock.ExpectExec(`UPDATE teams`).
					WithArgs(companyID.String(), teamID.String()).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "company missing",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE companies`).
					WithArgs(companyID.String(), pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectQuery(`SELECT EXISTS`).
					WithArgs(companyID.String()).
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
				mock.ExpectRollback()
			},
			wantErr: company.ErrNotFound,
		},
		{
			name: "no free slots",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				// The guarded increment matched no rows, but the company exists.
				mock.ExpectExec(`UPDATE companies`).
					WithArgs(companyID.String(), pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectQuery(`SELECT EXISTS`).
					WithArgs(companyID.String()).
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
				mock.ExpectRollback()
			},
			wantErr: company.ErrCapacityExceeded,
		},
		{
			name: "team missing rolls back the increment",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE companies`).
					WithArgs(companyID.String(), pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				mock.ExpectExec(`UPDATE teams`).
					WithArgs(companyID.String(), teamID.String()).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectQuery(`SELECT EXISTS`).
					WithArgs(teamID.String()).
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
				mock.ExpectRollback()
			},
			wantErr: company.ErrTeamNotFound,
		},
		{
			name: "team already assigned rolls back the increment",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE companies`).
					WithArgs(companyID.String(), pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				mock.ExpectExec(`UPDATE teams`).
					WithArgs(companyID.String(), teamID.String()).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectQuery(`SELECT EXISTS`).
					WithArgs(teamID.String()).
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
				mock.ExpectRollback()
			},
			wantErr: company.ErrTeamAssigned,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewCompanyRepository(mock)
			err = repo.Assign(context.Background(), teamID, companyID)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "expected %v in chain, got %v", tt.wantErr, err)
			} else {
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}
