package jwt

import (
	"testing"
	"time"

	"wellness-appointments/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "test-secret", AccessExpiry: 15 * time.Minute})
	userID := uuid.New()

	token, tokenID, err := svc.GenerateAccessToken(userID, "jane@example.com", 2)
	require.NoError(t, err)
	require.NotEmpty(t, tokenID)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, 2, claims.RoleID)
	assert.Equal(t, AccessToken, claims.TokenType)
	assert.Equal(t, tokenID, claims.TokenID)
}

func TestJWTService_RejectsOtherSecret(t *testing.T) {
	issuer := NewJWTService(config.JWTConfig{Secret: "one", AccessExpiry: time.Minute})
	verifier := NewJWTService(config.JWTConfig{Secret: "two", AccessExpiry: time.Minute})

	token, _, err := issuer.GenerateAccessToken(uuid.New(), "a@example.com", 1)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsExpired(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "s", AccessExpiry: time.Minute})
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, _, err := svc.GenerateAccessToken(uuid.New(), "a@example.com", 1)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}
