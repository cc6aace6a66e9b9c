package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleAtLeast(t *testing.T) {
	assert.True(t, RoleAtLeast(RoleUser, RoleUser))
	assert.True(t, RoleAtLeast(RoleAdmin, RoleUser))
	assert.True(t, RoleAtLeast(RoleAdmin, RoleAdmin))
	assert.False(t, RoleAtLeast(RoleUser, RoleAdmin))
}

func TestRoleAtLeastFailsClosed(t *testing.T) {
	assert.False(t, RoleAtLeast(Role("SUPERUSER"), RoleUser))
	assert.False(t, RoleAtLeast(Role(""), RoleUser))
	assert.False(t, RoleAtLeast(RoleAdmin, Role("OWNER")))
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	role, err = ParseRole(" USER ")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, role)

	_, err = ParseRole("root")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t,
		"0xd8da6bf26964af9d7eed9e03e53415d37aa96045",
		NormalizeAddress(" 0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045 "))
}

func TestDefaultProfile(t *testing.T) {
	profile := DefaultProfile("0xabc")
	assert.Equal(t, "0xabc", profile.Name)
	assert.Equal(t, RoleUser, profile.Role)
}

func TestPermissionErrorMatchesSentinel(t *testing.T) {
	err := &PermissionError{Have: RoleUser, Want: RoleAdmin}
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Contains(t, err.Error(), "USER")
	assert.Contains(t, err.Error(), "ADMIN")
}
