package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bathywatch/backend/config"
	"github.com/bathywatch/backend/models"
)

func setTestAuthConfig(t *testing.T, secret string, expiryMinutes int) {
	t.Helper()
	prevSecret := config.AppConfig.Auth.SecretKey
	prevExpiry := config.AppConfig.Auth.TokenExpiryMinutes
	config.AppConfig.Auth.SecretKey = secret
	config.AppConfig.Auth.TokenExpiryMinutes = expiryMinutes
	t.Cleanup(func() {
		config.AppConfig.Auth.SecretKey = prevSecret
		config.AppConfig.Auth.TokenExpiryMinutes = prevExpiry
	})
}

func TestHashAndVerifyPassword(t *testing.T) {
	hashed, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hashed)

	assert.True(t, VerifyPassword("correct horse battery staple", hashed))
	assert.False(t, VerifyPassword("correct horse battery stale", hashed))
	assert.False(t, VerifyPassword("correct horse battery staple", "not-a-bcrypt-hash"))
}

func TestAccessTokenRoundTrip(t *testing.T) {
	setTestAuthConfig(t, "test-secret-key", 30)

	token, err := CreateAccessToken(models.User{ID: 7, Username: "mariner"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	username, err := ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "mariner", username)
}

func TestParseAccessTokenRejectsGarbage(t *testing.T) {
	setTestAuthConfig(t, "test-secret-key", 30)

	for _, bad := range []string{"", "not.a.jwt", "eyJhbGciOiJIUzI1NiJ9.e30."} {
		_, err := ParseAccessToken(bad)
		assert.ErrorIs(t, err, ErrInvalidCredentials, "token %q", bad)
	}
}

func TestParseAccessTokenRejectsWrongKey(t *testing.T) {
	setTestAuthConfig(t, "test-secret-key", 30)
	token, err := CreateAccessToken(models.User{Username: "mariner"})
	require.NoError(t, err)

	config.AppConfig.Auth.SecretKey = "rotated-secret-key"
	_, err = ParseAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	// negative expiry issues a token that is already past its ExpiresAt
	setTestAuthConfig(t, "test-secret-key", -5)
	token, err := CreateAccessToken(models.User{Username: "mariner"})
	require.NoError(t, err)

	_, err = ParseAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
