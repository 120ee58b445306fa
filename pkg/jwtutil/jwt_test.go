package jwtutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUtil() *JWTUtil {
	return NewJWTUtil(&JWTConfig{
		SigningKey:         "test-signing-key",
		AccessTokenMinutes: 60,
		RefreshTokenHours:  24,
	})
}

func TestGenerateAndValidatePair(t *testing.T) {
	j := newTestUtil()
	tenantID := uint(7)

	pair, err := j.GeneratePair(42, "admin", &tenantID, "acme", false)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := j.ValidateToken(pair.AccessToken, TokenTypeAccess)
	require.NoError(t, err)

	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
	assert.Equal(t, "admin", claims.Username)
	require.NotNil(t, claims.TenantID)
	assert.Equal(t, uint(7), *claims.TenantID)
	assert.Equal(t, "acme", claims.TenantDomain)
	assert.False(t, claims.Superadmin)
}

func TestRefreshTokenRejectedAsAccess(t *testing.T) {
	j := newTestUtil()

	pair, err := j.GeneratePair(1, "user", nil, "", false)
	require.NoError(t, err)

	_, err = j.ValidateToken(pair.RefreshToken, TokenTypeAccess)
	assert.Error(t, err)

	_, err = j.ValidateToken(pair.RefreshToken, TokenTypeRefresh)
	assert.NoError(t, err)
}

func TestSuperadminTokenOmitsTenant(t *testing.T) {
	j := newTestUtil()

	pair, err := j.GeneratePair(1, "superadmin", nil, "", true)
	require.NoError(t, err)

	claims, err := j.ValidateToken(pair.AccessToken, TokenTypeAccess)
	require.NoError(t, err)
	assert.Nil(t, claims.TenantID)
	assert.True(t, claims.Superadmin)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	j := newTestUtil()
	other := NewJWTUtil(&JWTConfig{SigningKey: "other-key", AccessTokenMinutes: 60, RefreshTokenHours: 24})

	pair, err := j.GeneratePair(1, "user", nil, "", false)
	require.NoError(t, err)

	_, err = other.ValidateToken(pair.AccessToken, TokenTypeAccess)
	assert.Error(t, err)
}
