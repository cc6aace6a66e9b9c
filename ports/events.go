package ports

import (
	"context"

	"github.com/keel-labs/walletgate/core"
)

// EventPublisher publishes identity lifecycle events to notify other instances
type EventPublisher interface {
	PublishIdentityCreated(ctx context.Context, identity *core.Identity) error
	PublishRoleChanged(ctx context.Context, identity *core.Identity, previous core.Role) error
}
