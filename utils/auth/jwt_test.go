package auth

import (
	"testing"
	"time"

	"github.com/courseloom/lms-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *JWTManager {
	return NewJWTManager(JWTConfig{
		Secret:        "test-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "lms-api-test",
	})
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	m := newTestManager()

	token, jti, err := m.GenerateAccessToken(42, "alice", model.RoleTeacher, 3)
	require.NoError(t, err)
	assert.NotEmpty(t, jti)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, model.RoleTeacher, claims.Role)
	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, 3, claims.TokenVersion)
	assert.Equal(t, jti, claims.ID)
}

func TestRefreshTokenType(t *testing.T) {
	m := newTestManager()

	token, _, err := m.GenerateRefreshToken(1, "bob", model.RoleStudent, 0)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "refresh", claims.TokenType)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	m := newTestManager()
	other := NewJWTManager(JWTConfig{
		Secret: "different-secret",
		Expiry: time.Hour,
	})

	token, _, err := m.GenerateAccessToken(1, "alice", model.RoleAdmin, 0)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	m := NewJWTManager(JWTConfig{
		Secret: "test-secret",
		Expiry: -time.Minute,
	})

	token, _, err := m.GenerateAccessToken(1, "alice", model.RoleStudent, 0)
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestRefreshAccessToken(t *testing.T) {
	m := newTestManager()

	refresh, _, err := m.GenerateRefreshToken(7, "carol", model.RoleStudent, 1)
	require.NoError(t, err)

	access, _, err := m.RefreshAccessToken(refresh, 1)
	require.NoError(t, err)

	claims, err := m.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, uint(7), claims.UserID)
}

func TestRefreshAccessTokenRejectsAccessToken(t *testing.T) {
	m := newTestManager()

	access, _, err := m.GenerateAccessToken(7, "carol", model.RoleStudent, 1)
	require.NoError(t, err)

	_, _, err = m.RefreshAccessToken(access, 1)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGetTokenExpiry(t *testing.T) {
	m := newTestManager()

	token, _, err := m.GenerateAccessToken(1, "alice", model.RoleStudent, 0)
	require.NoError(t, err)

	expiry, err := m.GetTokenExpiry(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, time.Minute)
}
