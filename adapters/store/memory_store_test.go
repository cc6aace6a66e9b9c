package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keel-labs/walletgate/core"
)

func testIdentity(id, address string) *core.Identity {
	return &core.Identity{
		ID:        id,
		Address:   address,
		Name:      address,
		Role:      core.RoleUser,
		CreatedAt: time.Now().UTC(),
	}
}

func TestMemoryStoreInsertAndLookup(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	identity := testIdentity("id-1", "0xabc")
	require.NoError(t, s.Insert(ctx, identity))

	byAddr, err := s.FindByAddress(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, *identity, *byAddr)

	byID, err := s.Get(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, *identity, *byID)
}

func TestMemoryStoreNotFound(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.FindByAddress(ctx, "0xmissing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = s.UpdateRole(ctx, "missing", core.RoleAdmin)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestMemoryStoreDuplicateAddress(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, testIdentity("id-1", "0xabc")))
	err := s.Insert(ctx, testIdentity("id-2", "0xabc"))
	assert.ErrorIs(t, err, core.ErrDuplicateAddress)

	// The first write wins.
	identity, err := s.FindByAddress(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "id-1", identity.ID)
}

func TestMemoryStoreUpdateRole(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, testIdentity("id-1", "0xabc")))

	updated, err := s.UpdateRole(ctx, "id-1", core.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, core.RoleAdmin, updated.Role)

	stored, err := s.Get(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, core.RoleAdmin, stored.Role)
}

func TestMemoryStoreList(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, testIdentity("id-1", "0xabc")))
	require.NoError(t, s.Insert(ctx, testIdentity("id-2", "0xdef")))

	identities, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, identities, 2)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, testIdentity("id-1", "0xabc")))

	first, err := s.Get(ctx, "id-1")
	require.NoError(t, err)
	first.Role = core.RoleAdmin

	second, err := s.Get(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, core.RoleUser, second.Role, "mutating a returned identity must not leak into the store")
}
