// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slotterhq/slotter/internal/auth"
	authmocks "github.com/slotterhq/slotter/internal/auth/mocks"
	"github.com/slotterhq/slotter/internal/company"
	companymocks "github.com/slotterhq/slotter/internal/company/mocks"
	"github.com/slotterhq/slotter/internal/httpapi"
	"github.com/slotterhq/slotter/internal/team"
	teammocks "github.com/slotterhq/slotter/internal/team/mocks"
)

type testEnv struct {
	router    http.Handler
	tokens    *auth.TokenService
	accounts  *authmocks.MockAccountRepository
	hasher    *authmocks.MockPasswordHasher
	teams     *teammocks.MockTeamRepository
	companies *companymocks.MockCompanyRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	accounts := authmocks.NewMockAccountRepository(t)
	hasher := authmocks.NewMockPasswordHasher(t)
	teams := teammocks.NewMockTeamRepository(t)
	companies := companymocks.NewMockCompanyRepository(t)

	tokens, err := auth.NewTokenService([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	server := httpapi.NewServer(httpapi.Config{
		Addr:      "127.0.0.1:0",
		Accounts:  auth.NewService(accounts, hasher, tokens, "http://localhost:8080"),
		Tokens:    tokens,
		Teams:     team.NewRegistry(teams, accounts),
		Companies: company.NewAllocator(companies),
	})

	return &testEnv{
		router:    server.Router(),
		tokens:    tokens,
		accounts:  accounts,
		hasher:    hasher,
		teams:     teams,
		companies: companies,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) issueToken(t *testing.T, accountID ulid.ULID, role auth.Role, username string) string {
	t.Helper()
	token, err := e.tokens.Issue(accountID, role, username)
	require.NoError(t, err)
	return token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "body: %s", rec.Body.String())
	return body
}

func TestHandleRegister(t *testing.T) {
	env := newTestEnv(t)

	env.hasher.On("Hash", "hunter2hunter2").Return("$2a$12$hash", nil)
	env.accounts.On("Create", mock.Anything, mock.Anything).Return(nil)

	rec := env.do(t, http.MethodPost, "/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "hunter2hunter2",
	}, "")

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "User registered successfully.", body["message"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHandleRegister_EmailTaken(t *testing.T) {
	env := newTestEnv(t)

	env.hasher.On("Hash", "hunter2hunter2").Return("$2a$12$hash", nil)
	env.accounts.On("Create", mock.Anything, mock.Anything).Return(auth.ErrEmailTaken)

	rec := env.do(t, http.MethodPost, "/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "hunter2hunter2",
	}, "")

	// Conflicts on the public surface answer 400, not 409.
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["error"], "email already registered")
}

func TestHandleRegister_InvalidBody(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "invalid request body", body["error"])
}

func TestHandleLogin(t *testing.T) {
	env := newTestEnv(t)

	account := &auth.Account{
		ID:           ulid.Make(),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$12$hash",
		Role:         auth.RoleStudent,
	}
	env.accounts.On("GetByEmail", mock.Anything, "alice@example.com").Return(account, nil)
	env.hasher.On("Verify", "hunter2hunter2", "$2a$12$hash").Return(true, nil)

	rec := env.do(t, http.MethodPost, "/login", map[string]string{
		"email":    "alice@example.com",
		"password": "hunter2hunter2",
	}, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, "student", body["role"])
	assert.Equal(t, "alice", body["username"])
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)

	env.accounts.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, auth.ErrNotFound)
	env.hasher.On("Verify", "wrong", mock.Anything).Return(false, nil)

	rec := env.do(t, http.MethodPost, "/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	}, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["error"], "invalid email or password")
}

func TestHandleForgotPassword(t *testing.T) {
	env := newTestEnv(t)

	account := &auth.Account{
		ID:       ulid.Make(),
		Username: "alice",
		Email:    "alice@example.com",
		Role:     auth.RoleStudent,
	}
	env.accounts.On("GetByEmail", mock.Anything, "alice@example.com").Return(account, nil)
	env.accounts.On("SetResetToken", mock.Anything, account.ID, mock.Anything, mock.Anything).Return(nil)

	rec := env.do(t, http.MethodPost, "/forgot-password", map[string]string{
		"email": "alice@example.com",
	}, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Password reset link generated.", body["message"])
	assert.Contains(t, body["resetLink"], "/password-reset/reset-password.html?token=")
}

func TestHandleForgotPassword_UnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	env.accounts.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, auth.ErrNotFound)

	rec := env.do(t, http.MethodPost, "/forgot-password", map[string]string{
		"email": "nobody@example.com",
	}, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleResetPassword(t *testing.T) {
	env := newTestEnv(t)

	env.hasher.On("Hash", "newpassword1").Return("$2a$12$newhash", nil)
	env.accounts.On("ConsumeResetToken", mock.Anything, mock.Anything, "$2a$12$newhash").
		Return(ulid.Make(), nil)

	rec := env.do(t, http.MethodPost, "/reset-password", map[string]string{
		"token":       "sometoken",
		"newPassword": "newpassword1",
	}, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Password has been reset successfully.", body["message"])
}

func TestHandleResetPassword_InvalidToken(t *testing.T) {
	env := newTestEnv(t)

	env.hasher.On("Hash", "newpassword1").Return("$2a$12$newhash", nil)
	env.accounts.On("ConsumeResetToken", mock.Anything, mock.Anything, mock.Anything).
		Return(ulid.ULID{}, auth.ErrNotFound)

	rec := env.do(t, http.MethodPost, "/reset-password", map[string]string{
		"token":       "stale",
		"newPassword": "newpassword1",
	}, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["error"], "reset token is invalid or has expired")
}

func TestHandleTeamSignup(t *testing.T) {
	env := newTestEnv(t)

	alice := &auth.Account{ID: ulid.Make(), Username: "alice", Role: auth.RoleStudent}
	bob := &auth.Account{ID: ulid.Make(), Username: "bob", Role: auth.RoleStudent}
	env.accounts.On("GetByUsernames", mock.Anything, []string{"alice", "bob"}).
		Return([]*auth.Account{alice, bob}, nil)
	env.teams.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	rec := env.do(t, http.MethodPost, "/team-signup", map[string]any{
		"teamName":        "Rocket",
		"founderUsername": "alice",
		"memberUsernames": []string{"bob"},
	}, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Team registered successfully.", body["message"])
	assert.NotEmpty(t, body["teamId"])
}

func TestHandleTeamSignup_Conflicts(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(env *testEnv)
		wantMsg string
	}{
		{
			name: "name taken",
			setup: func(env *testEnv) {
				alice := &auth.Account{ID: ulid.Make(), Username: "alice", Role: auth.RoleStudent}
				env.accounts.On("GetByUsernames", mock.Anything, []string{"alice"}).
					Return([]*auth.Account{alice}, nil)
				env.teams.On("Create", mock.Anything, mock.Anything, mock.Anything).
					Return(team.ErrNameTaken)
			},
			wantMsg: "team name already taken",
		},
		{
			name: "unknown member",
			setup: func(env *testEnv) {
				env.accounts.On("GetByUsernames", mock.Anything, []string{"alice"}).
					Return([]*auth.Account{}, nil)
			},
			wantMsg: "one or more usernames do not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			tt.setup(env)

			rec := env.do(t, http.MethodPost, "/team-signup", map[string]any{
				"teamName":        "Rocket",
				"founderUsername": "alice",
			}, "")

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeBody(t, rec)
			assert.Contains(t, body["error"], tt.wantMsg)
		})
	}
}

func TestHandleListCompanies_Public(t *testing.T) {
	env := newTestEnv(t)

	env.companies.On("List", mock.Anything).Return([]*company.Company{
		{ID: ulid.Make(), Name: "Acme", MaxTeams: 3, AssignedCount: 1},
	}, nil)

	// No Authorization header: the company list is public.
	rec := env.do(t, http.MethodGet, "/api/companies", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "Acme", body[0]["name"])
	assert.Equal(t, float64(3), body[0]["maxTeams"])
	assert.Equal(t, float64(1), body[0]["assignedCount"])
}

func TestHandleWhoami(t *testing.T) {
	env := newTestEnv(t)

	teamID := ulid.Make()
	account := &auth.Account{
		ID:       ulid.Make(),
		Username: "alice",
		Email:    "alice@example.com",
		Role:     auth.RoleStudent,
		TeamID:   &teamID,
	}
	env.accounts.On("GetByID", mock.Anything, account.ID).Return(account, nil)

	token := env.issueToken(t, account.ID, auth.RoleStudent, "alice")
	rec := env.do(t, http.MethodGet, "/api/user", nil, token)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, account.ID.String(), body["id"])
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "alice@example.com", body["email"])
	assert.Equal(t, "student", body["role"])
	assert.Equal(t, teamID.String(), body["teamId"])
}

func TestAuthenticate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		wantMsg string
	}{
		{"missing header", "", "missing authorization header"},
		{"wrong scheme", "Basic abc123", "invalid authorization header format"},
		{"garbage token", "Bearer not.a.token", "invalid or expired token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tt.wantMsg, body["error"])
		})
	}
}

func TestHandleListTeams_AdminOnly(t *testing.T) {
	env := newTestEnv(t)

	token := env.issueToken(t, ulid.Make(), auth.RoleStudent, "alice")
	rec := env.do(t, http.MethodGet, "/api/teams", nil, token)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "admin access required", body["error"])
}

func TestHandleListTeams(t *testing.T) {
	env := newTestEnv(t)

	companyName := "Acme"
	env.teams.On("List", mock.Anything).Return([]*team.Summary{
		{ID: ulid.Make(), Name: "Rocket", Members: []string{"alice", "bob"}, CompanyName: &companyName},
		{ID: ulid.Make(), Name: "Comet"},
	}, nil)

	token := env.issueToken(t, ulid.Make(), auth.RoleAdmin, "admin")
	rec := env.do(t, http.MethodGet, "/api/teams", nil, token)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "Rocket", body[0]["name"])
	assert.Equal(t, []any{"alice", "bob"}, body[0]["members"])
	assert.Equal(t, "Acme", body[0]["company"])
	// Members is always a JSON array, never null.
	assert.Equal(t, []any{}, body[1]["members"])
	assert.NotContains(t, body[1], "company")
}

func TestHandleCreateCompany(t *testing.T) {
	env := newTestEnv(t)

	env.companies.On("Create", mock.Anything, mock.Anything).Return(nil)

	token := env.issueToken(t, ulid.Make(), auth.RoleAdmin, "admin")
	rec := env.do(t, http.MethodPost, "/api/companies", map[string]any{
		"name":     "Acme",
		"maxTeams": 3,
	}, token)

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Acme", body["name"])
	assert.Equal(t, float64(3), body["maxTeams"])
	assert.Equal(t, float64(0), body["assignedCount"])
}

func TestHandleCreateCompany_StudentForbidden(t *testing.T) {
	env := newTestEnv(t)

	token := env.issueToken(t, ulid.Make(), auth.RoleStudent, "alice")
	rec := env.do(t, http.MethodPost, "/api/companies", map[string]any{
		"name":     "Acme",
		"maxTeams": 3,
	}, token)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleUpdateCompany_CapacityBelowAssigned(t *testing.T) {
	env := newTestEnv(t)

	id := ulid.Make()
	env.companies.On("Update", mock.Anything, id, "Acme", 1).
		Return(nil, company.ErrCapacityBelowAssigned)

	token := env.issueToken(t, ulid.Make(), auth.RoleAdmin, "admin")
	rec := env.do(t, http.MethodPut, "/api/companies/"+id.String(), map[string]any{
		"name":     "Acme",
		"maxTeams": 1,
	}, token)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["error"], "capacity cannot be set below the number of assigned teams")
}

func TestHandleUpdateCompany_BadID(t *testing.T) {
	env := newTestEnv(t)

	token := env.issueToken(t, ulid.Make(), auth.RoleAdmin, "admin")
	rec := env.do(t, http.MethodPut, "/api/companies/not-a-ulid", map[string]any{
		"name":     "Acme",
		"maxTeams": 1,
	}, token)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "company not found", body["error"])
}

func TestHandleDeleteCompany(t *testing.T) {
	env := newTestEnv(t)

	id := ulid.Make()
	env.companies.On("Delete", mock.Anything, id).Return(nil)

	token := env.issueToken(t, ulid.Make(), auth.RoleAdmin, "admin")
	rec := env.do(t, http.MethodDelete, "/api/companies/"+id.String(), nil, token)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Company deleted successfully.", body["message"])
}

func TestHandleSelectCompany_OwnTeam(t *testing.T) {
	env := newTestEnv(t)

	teamID := ulid.Make()
	companyID := ulid.Make()
	account := &auth.Account{
		ID:       ulid.Make(),
		Username: "alice",
		Role:     auth.RoleStudent,
		TeamID:   &teamID,
	}
	env.accounts.On("GetByID", mock.Anything, account.ID).Return(account, nil)
	env.companies.On("Assign", mock.Anything, teamID, companyID).Return(nil)

	token := env.issueToken(t, account.ID, auth.RoleStudent, "alice")
	rec := env.do(t, http.MethodPost, "/api/teams/"+teamID.String()+"/select-company",
		map[string]string{"companyId": companyID.String()}, token)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Company selected successfully.", body["message"])
}

func TestHandleSelectCompany_OtherTeamForbidden(t *testing.T) {
	env := newTestEnv(t)

	ownTeamID := ulid.Make()
	otherTeamID := ulid.Make()
	account := &auth.Account{
		ID:       ulid.Make(),
		Username: "alice",
		Role:     auth.RoleStudent,
		TeamID:   &ownTeamID,
	}
	env.accounts.On("GetByID", mock.Anything, account.ID).Return(account, nil)

	token := env.issueToken(t, account.ID, auth.RoleStudent, "alice")
	rec := env.do(t, http.MethodPost, "/api/teams/"+otherTeamID.String()+"/select-company",
		map[string]string{"companyId": ulid.Make().String()}, token)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "you can only select a company for your own team", body["error"])
}

func TestHandleSelectCompany_AdminAnyTeam(t *testing.T) {
	env := newTestEnv(t)

	teamID := ulid.Make()
	companyID := ulid.Make()
	env.companies.On("Assign", mock.Anything, teamID, companyID).Return(nil)

	token := env.issueToken(t, ulid.Make(), auth.RoleAdmin, "admin")
	rec := env.do(t, http.MethodPost, "/api/teams/"+teamID.String()+"/select-company",
		map[string]string{"companyId": companyID.String()}, token)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleSelectCompany_CompanyFull(t *testing.T) {
	env := newTestEnv(t)

	teamID := ulid.Make()
	companyID := ulid.Make()
	env.companies.On("Assign", mock.Anything, teamID, companyID).
		Return(company.ErrCapacityExceeded)

	token := env.issueToken(t, ulid.Make(), auth.RoleAdmin, "admin")
	rec := env.do(t, http.MethodPost, "/api/teams/"+teamID.String()+"/select-company",
		map[string]string{"companyId": companyID.String()}, token)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["error"], "company has no remaining slots")
}

func TestHandleSelectCompany_TeamAlreadyAssigned(t *testing.T) {
	env := newTestEnv(t)

	teamID := ulid.Make()
	companyID := ulid.Make()
	env.companies.On("Assign", mock.Anything, teamID, companyID).
		Return(company.ErrTeamAssigned)

	token := env.issueToken(t, ulid.Make(), auth.RoleAdmin, "admin")
	rec := env.do(t, http.MethodPost, "/api/teams/"+teamID.String()+"/select-company",
		map[string]string{"companyId": companyID.String()}, token)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSelectCompany_BadTeamID(t *testing.T) {
	env := newTestEnv(t)

	token := env.issueToken(t, ulid.Make(), auth.RoleStudent, "alice")
	rec := env.do(t, http.MethodPost, "/api/teams/not-a-ulid/select-company",
		map[string]string{"companyId": ulid.Make().String()}, token)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "team not found", body["error"])
}

func TestRequestID_Passthrough(t *testing.T) {
	env := newTestEnv(t)

	env.companies.On("List", mock.Anything).Return([]*company.Company{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/companies", nil)
	req.Header.Set("X-Request-ID", "req-12345")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, "req-12345", rec.Header().Get("X-Request-ID"))
}
