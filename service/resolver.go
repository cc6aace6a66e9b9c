package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/keel-labs/walletgate/core"
	"github.com/keel-labs/walletgate/ports"
)

// AccountResolver links verified wallet addresses to identities. It
// guarantees at most one identity per normalized address even under
// concurrent first-time logins.
type AccountResolver struct {
	store ports.IdentityStore
}

// NewAccountResolver creates a resolver over the given store.
func NewAccountResolver(store ports.IdentityStore) *AccountResolver {
	return &AccountResolver{store: store}
}

// ResolveOrCreate returns the identity linked to address, creating it with
// the given profile on first login. An existing identity is returned
// unchanged. When a concurrent login wins the creation race the store
// reports a duplicate and the winner's identity is re-read and returned.
func (r *AccountResolver) ResolveOrCreate(ctx context.Context, address string, profile core.Profile) (*core.Identity, bool, error) {
	identity, err := r.store.FindByAddress(ctx, address)
	if err == nil {
		return identity, false, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, false, err
	}

	role := profile.Role
	if !role.Valid() {
		role = core.RoleUser
	}
	name := profile.Name
	if name == "" {
		name = address
	}

	created := &core.Identity{
		ID:        uuid.New().String(),
		Address:   address,
		Name:      name,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}

	err = r.store.Insert(ctx, created)
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, core.ErrDuplicateAddress) {
		return nil, false, err
	}

	// Lost the creation race: the winner's identity is authoritative.
	winner, err := r.store.FindByAddress(ctx, address)
	if err != nil {
		return nil, false, fmt.Errorf("failed to re-read identity after creation conflict: %w", err)
	}
	return winner, false, nil
}
