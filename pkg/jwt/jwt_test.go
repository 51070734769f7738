package jwt

import (
	"testing"
	"time"

	"clinic-appointment-engine/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateAccessToken(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "test-secret", AccessExpiry: time.Minute})
	userID := uuid.New()

	token, tokenID, err := svc.GenerateAccessToken(userID, "ana@example.com", 2)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, 2, claims.RoleID)
	assert.Equal(t, AccessToken, claims.TokenType)
	assert.Equal(t, tokenID, claims.TokenID)
}

func TestValidateToken_Rejects(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "test-secret", AccessExpiry: time.Minute})
	other := NewJWTService(config.JWTConfig{Secret: "other-secret", AccessExpiry: time.Minute})
	expired := NewJWTService(config.JWTConfig{Secret: "test-secret", AccessExpiry: -time.Minute})

	foreign, _, err := other.GenerateAccessToken(uuid.New(), "x@example.com", 3)
	require.NoError(t, err)
	stale, _, err := expired.GenerateAccessToken(uuid.New(), "x@example.com", 3)
	require.NoError(t, err)

	for name, token := range map[string]string{"wrong secret": foreign, "expired": stale, "garbage": "not.a.token"} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			assert.Error(t, err)
		})
	}
}
