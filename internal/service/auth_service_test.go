package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/models"
	appErrors "github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/errors"
)

func signClaims(t *testing.T, secret string, claims *models.JWTClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestValidateToken(t *testing.T) {
	svc := NewAuthService(AuthConfig{AccessTokenSecret: "secret", Issuer: "lms"})
	now := time.Now()
	token := signClaims(t, "secret", &models.JWTClaims{
		UserID: 7,
		Role:   models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "lms",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.True(t, claims.HasRole(models.RoleSuperAdmin, models.RoleAdmin))
}

func TestValidateTokenRejects(t *testing.T) {
	svc := NewAuthService(AuthConfig{AccessTokenSecret: "secret", Issuer: "lms"})
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	cases := map[string]string{
		"wrong secret": signClaims(t, "other", &models.JWTClaims{UserID: 7, RegisteredClaims: jwt.RegisteredClaims{Issuer: "lms", ExpiresAt: future}}),
		"wrong issuer": signClaims(t, "secret", &models.JWTClaims{UserID: 7, RegisteredClaims: jwt.RegisteredClaims{Issuer: "x", ExpiresAt: future}}),
		"expired":      signClaims(t, "secret", &models.JWTClaims{UserID: 7, RegisteredClaims: jwt.RegisteredClaims{Issuer: "lms", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))}}),
		"no user":      signClaims(t, "secret", &models.JWTClaims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "lms", ExpiresAt: future}}),
		"garbage":      "not-a-token",
	}
	for name, token := range cases {
		_, err := svc.ValidateToken(token)
		assert.True(t, errors.Is(err, appErrors.ErrUnauthorized), name)
	}
}
