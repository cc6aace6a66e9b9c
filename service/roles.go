package service

import (
	"context"
	"fmt"
	"log"

	"github.com/keel-labs/walletgate/core"
	"github.com/keel-labs/walletgate/internal/obs"
	"github.com/keel-labs/walletgate/ports"
)

// RoleAuthority owns the role hierarchy and every role decision. SetRole is
// the sole code path that mutates an identity's role.
type RoleAuthority struct {
	store    ports.IdentityStore
	eventPub ports.EventPublisher
}

// NewRoleAuthority creates a role authority over the given store. eventPub
// may be nil when no event transport is configured.
func NewRoleAuthority(store ports.IdentityStore, eventPub ports.EventPublisher) *RoleAuthority {
	return &RoleAuthority{store: store, eventPub: eventPub}
}

// HasRole reports whether identity holds at least the required role.
// Unknown roles on either side grant nothing.
func (a *RoleAuthority) HasRole(identity *core.Identity, required core.Role) bool {
	if identity == nil {
		return false
	}
	have := identity.Role
	if !have.Valid() {
		// Unset or unknown stored role behaves as the weakest role.
		have = core.RoleUser
	}
	return core.RoleAtLeast(have, required)
}

// RequireRole asserts that identity holds the required role, reporting the
// held and required roles on failure.
func (a *RoleAuthority) RequireRole(identity *core.Identity, required core.Role) error {
	if a.HasRole(identity, required) {
		return nil
	}
	have := core.RoleUser
	if identity != nil && identity.Role.Valid() {
		have = identity.Role
	}
	return &core.PermissionError{Have: have, Want: required}
}

// CurrentRole returns the role of the identity with the given id.
func (a *RoleAuthority) CurrentRole(ctx context.Context, identityID string) (core.Role, error) {
	identity, err := a.store.Get(ctx, identityID)
	if err != nil {
		return "", err
	}
	if !identity.Role.Valid() {
		return core.RoleUser, nil
	}
	return identity.Role, nil
}

// SetRole updates the role of the identity linked to targetAddress. The
// acting identity must hold ADMIN; a client-supplied role is never trusted,
// the actor is always re-read from the store.
func (a *RoleAuthority) SetRole(ctx context.Context, actingID, targetAddress string, newRole core.Role) (*core.Identity, error) {
	if !newRole.Valid() {
		return nil, core.ErrInvalidRole
	}

	actor, err := a.store.Get(ctx, actingID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve acting identity: %w", err)
	}
	if err := a.RequireRole(actor, core.RoleAdmin); err != nil {
		return nil, err
	}

	target, err := a.store.FindByAddress(ctx, core.NormalizeAddress(targetAddress))
	if err != nil {
		return nil, err
	}

	previous := target.Role
	updated, err := a.store.UpdateRole(ctx, target.ID, newRole)
	if err != nil {
		return nil, err
	}
	obs.ObserveRoleChanged()

	if a.eventPub != nil {
		if err := a.eventPub.PublishRoleChanged(ctx, updated, previous); err != nil {
			// The role is already persisted; a lost event must not fail the call.
			log.Printf("failed to publish role change event: %v", err)
		}
	}

	return updated, nil
}

// ListIdentities returns all identities. The acting identity must hold ADMIN.
func (a *RoleAuthority) ListIdentities(ctx context.Context, actingID string) ([]*core.Identity, error) {
	actor, err := a.store.Get(ctx, actingID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve acting identity: %w", err)
	}
	if err := a.RequireRole(actor, core.RoleAdmin); err != nil {
		return nil, err
	}
	return a.store.List(ctx)
}
