// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// SessionTokenExpiry is the fixed lifetime of an issued session token.
const SessionTokenExpiry = time.Hour

// Claims is the payload of a session token. The subject is the account ID.
type Claims struct {
	jwt.RegisteredClaims
	Role     string `json:"role"`
	Username string `json:"username"`
}

// AccountID parses the subject claim into an account ID.
func (c *Claims) AccountID() (ulid.ULID, error) {
	id, err := ulid.Parse(c.Subject)
	if err != nil {
		return ulid.ULID{}, oops.Code("AUTH_TOKEN_INVALID").
			With("subject", c.Subject).
			Wrap(err)
	}
	return id, nil
}

// TokenService issues and verifies signed session tokens.
// Sessions are stateless: validity is proven by signature and expiry alone.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService creates a TokenService with the given signing secret.
// The secret is process-wide configuration, read-only after startup.
func NewTokenService(secret []byte) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, oops.Code("AUTH_SECRET_MISSING").Errorf("token signing secret cannot be empty")
	}
	return &TokenService{secret: secret, now: time.Now}, nil
}

// Issue signs a session token for the account. The role is validated
// against the enum before it is embedded.
func (s *TokenService) Issue(accountID ulid.ULID, role Role, username string) (string, error) {
	if _, err := ParseRole(role.String()); err != nil {
		return "", err
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTokenExpiry)),
		},
		Role:     role.String(),
		Username: username,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_SIGN_FAILED").Wrap(err)
	}
	return token, nil
}

// Verify parses and validates a session token. It fails if the signature
// is invalid, the token has expired, or the embedded role is outside the
// enum.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, oops.Code("AUTH_TOKEN_INVALID").Errorf("session token cannot be empty")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	if err != nil {
		return nil, oops.Code("AUTH_TOKEN_INVALID").Wrap(err)
	}
	if !token.Valid {
		return nil, oops.Code("AUTH_TOKEN_INVALID").Errorf("invalid session token")
	}
	if _, err := ParseRole(claims.Role); err != nil {
		return nil, oops.Code("AUTH_TOKEN_INVALID").
			With("role", claims.Role).
			Wrap(err)
	}
	return claims, nil
}
