package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/keel-labs/walletgate/core"
	"github.com/keel-labs/walletgate/ports"
)

const (
	TopicIdentityCreated = "walletgate.identity.created"
	TopicRoleChanged     = "walletgate.role.changed"
)

// IdentityCreatedEvent announces a first-login identity creation.
type IdentityCreatedEvent struct {
	IdentityID string `json:"identity_id"`
	Address    string `json:"address"`
	Role       string `json:"role"`
}

// RoleChangedEvent announces an administrative role update.
type RoleChangedEvent struct {
	IdentityID   string `json:"identity_id"`
	Address      string `json:"address"`
	PreviousRole string `json:"previous_role"`
	NewRole      string `json:"new_role"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishIdentityCreated publishes an identity-created event.
func (p *WatermillPublisher) PublishIdentityCreated(ctx context.Context, identity *core.Identity) error {
	event := IdentityCreatedEvent{
		IdentityID: identity.ID,
		Address:    identity.Address,
		Role:       string(identity.Role),
	}
	return p.publish(TopicIdentityCreated, identity.ID, event)
}

// PublishRoleChanged publishes a role-changed event.
func (p *WatermillPublisher) PublishRoleChanged(ctx context.Context, identity *core.Identity, previous core.Role) error {
	event := RoleChangedEvent{
		IdentityID:   identity.ID,
		Address:      identity.Address,
		PreviousRole: string(previous),
		NewRole:      string(identity.Role),
	}
	return p.publish(TopicRoleChanged, identity.ID, event)
}

func (p *WatermillPublisher) publish(topic, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(key, payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
