package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecosphere/ecosphere/internal/auth"
)

func newTestJWTService(key, issuer, audience string) *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SigningKey: key,
		Issuer:     issuer,
		Audience:   audience,
	})
}

func TestJWTService_GenerateAndValidateAccessToken(t *testing.T) {
	svc := newTestJWTService("test-secret-key-for-testing-only", "https://api.ecosphere.app", "ecosphere-api")

	token, expiresAt, err := svc.GenerateAccessToken("usr_test123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(auth.AccessTokenExpiry), expiresAt, 5*time.Second)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "usr_test123", claims.UserID)
	assert.Equal(t, "usr_test123", claims.Subject)
	assert.Equal(t, "https://api.ecosphere.app", claims.Issuer)
}

func TestJWTService_InvalidToken(t *testing.T) {
	svc := newTestJWTService("test-secret-key-for-testing-only", "https://api.ecosphere.app", "ecosphere-api")

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"malformed token", "not.a.valid.jwt"},
		{"invalid base64", "xxx.yyy.zzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tt.token)
			assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
		})
	}
}

func TestJWTService_Mismatches(t *testing.T) {
	issuer := newTestJWTService("key-one", "https://api.ecosphere.app", "ecosphere-api")
	token, _, err := issuer.GenerateAccessToken("usr_test123")
	require.NoError(t, err)

	tests := []struct {
		name     string
		verifier *auth.JWTService
	}{
		{"wrong signing key", newTestJWTService("key-two", "https://api.ecosphere.app", "ecosphere-api")},
		{"wrong issuer", newTestJWTService("key-one", "issuer-two", "ecosphere-api")},
		{"wrong audience", newTestJWTService("key-one", "https://api.ecosphere.app", "audience-two")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.verifier.ValidateAccessToken(token)
			assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
		})
	}
}

func TestJWTService_ExpiredToken(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	claims := auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://api.ecosphere.app",
			Subject:   "usr_test123",
			Audience:  jwt.ClaimStrings{"ecosphere-api"},
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
		},
		UserID: "usr_test123",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)

	svc := newTestJWTService("test-key", "https://api.ecosphere.app", "ecosphere-api")
	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrAccessTokenExpired)
}

func TestGenerateRefreshToken(t *testing.T) {
	token1, err := auth.GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEmpty(t, token1)

	token2, err := auth.GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, token1, token2)

	assert.Regexp(t, `^[A-Za-z0-9_-]+$`, token1)
}

func TestHashRefreshToken(t *testing.T) {
	h1 := auth.HashRefreshToken("abc")
	assert.Len(t, h1, 64)
	assert.Equal(t, h1, auth.HashRefreshToken("abc"))
	assert.NotEqual(t, h1, auth.HashRefreshToken("abd"))
}

func TestRefreshToken_Active(t *testing.T) {
	now := time.Now()
	token := &auth.RefreshToken{ExpiresAt: now.Add(time.Hour)}
	assert.True(t, token.Active(now))
	assert.False(t, token.Active(now.Add(2*time.Hour)))

	token.RevokedAt = &now
	assert.False(t, token.Active(now))
}
