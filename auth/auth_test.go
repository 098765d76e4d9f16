package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avand/docportal-backend/models"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	access, refresh, err := GenerateTokens("4b8c9a1e-0000-0000-0000-000000000001")
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	assert.NotEqual(t, access, refresh)

	id, err := ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, "4b8c9a1e-0000-0000-0000-000000000001", id)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	access, _, err := GenerateTokens("user-1")
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "other-secret")
	_, err = ValidateToken(access)
	assert.Error(t, err)
}

func TestValidateTokenRejectsRefreshToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	_, refresh, err := GenerateTokens("user-1")
	require.NoError(t, err)

	_, err = ValidateToken(refresh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid for authentication")
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	_, err := ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestUserCan(t *testing.T) {
	admin := &models.User{Role: models.RoleAdmin}
	member := &models.User{Role: models.RoleMember}
	pending := &models.User{Role: "pending"}

	assert.True(t, UserCan(admin, CapReadDocuments))
	assert.True(t, UserCan(admin, CapManageDocuments))

	assert.True(t, UserCan(member, CapReadDocuments))
	assert.False(t, UserCan(member, CapManageDocuments))

	assert.False(t, UserCan(pending, CapReadDocuments))
	assert.False(t, UserCan(nil, CapReadDocuments))
}
