package ports

import (
	"context"

	"github.com/keel-labs/walletgate/core"
)

// IdentityStore persists identities keyed by a unique normalized wallet
// address. Implementations surface core.ErrNotFound for absent records,
// core.ErrDuplicateAddress when Insert loses a uniqueness race, and wrap
// infrastructure faults in core.ErrStorageUnavailable.
type IdentityStore interface {
	// FindByAddress resolves an identity by its normalized wallet address.
	FindByAddress(ctx context.Context, address string) (*core.Identity, error)

	// Get resolves an identity by id.
	Get(ctx context.Context, id string) (*core.Identity, error)

	// Insert stores a new identity. The address uniqueness check and the
	// write must be atomic with respect to concurrent inserts.
	Insert(ctx context.Context, identity *core.Identity) error

	// UpdateRole patches the role of an existing identity and returns the
	// updated record.
	UpdateRole(ctx context.Context, id string, role core.Role) (*core.Identity, error)

	// List returns all identities.
	List(ctx context.Context) ([]*core.Identity, error)
}
