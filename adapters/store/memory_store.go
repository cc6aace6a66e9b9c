package store

import (
	"context"
	"sync"

	"github.com/keel-labs/walletgate/core"
	"github.com/keel-labs/walletgate/ports"
)

// MemoryStore is an in-memory implementation of the IdentityStore interface.
// Primarily intended for testing and local development.
type MemoryStore struct {
	mu        sync.RWMutex
	byID      map[string]core.Identity
	byAddress map[string]string
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:      make(map[string]core.Identity),
		byAddress: make(map[string]string),
	}
}

var _ ports.IdentityStore = (*MemoryStore)(nil)

// FindByAddress resolves an identity by its normalized wallet address.
func (s *MemoryStore) FindByAddress(ctx context.Context, address string) (*core.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byAddress[address]
	if !ok {
		return nil, core.ErrNotFound
	}
	identity := s.byID[id]
	return &identity, nil
}

// Get resolves an identity by id.
func (s *MemoryStore) Get(ctx context.Context, id string) (*core.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &identity, nil
}

// Insert stores a new identity; the uniqueness check and the write happen
// under one lock, so a lost race is reported as a duplicate.
func (s *MemoryStore) Insert(ctx context.Context, identity *core.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byAddress[identity.Address]; exists {
		return core.ErrDuplicateAddress
	}
	s.byID[identity.ID] = *identity
	s.byAddress[identity.Address] = identity.ID
	return nil
}

// UpdateRole patches the role of an existing identity.
func (s *MemoryStore) UpdateRole(ctx context.Context, id string, role core.Role) (*core.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	identity.Role = role
	s.byID[id] = identity
	return &identity, nil
}

// List returns all identities.
func (s *MemoryStore) List(ctx context.Context) ([]*core.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identities := make([]*core.Identity, 0, len(s.byID))
	for id := range s.byID {
		identity := s.byID[id]
		identities = append(identities, &identity)
	}
	return identities, nil
}
