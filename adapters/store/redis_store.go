package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/keel-labs/walletgate/core"
	"github.com/keel-labs/walletgate/ports"
)

const (
	redisAddressPrefix  = "walletgate:address:"
	redisIdentityPrefix = "walletgate:identity:"
	redisIdentitySet    = "walletgate:identities"
)

// RedisStore is a Redis implementation of the IdentityStore interface.
// Identities live in hashes; the address key written with SETNX is the
// uniqueness serialization point for concurrent first-time logins.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

var _ ports.IdentityStore = (*RedisStore)(nil)

// FindByAddress resolves an identity by its normalized wallet address.
func (s *RedisStore) FindByAddress(ctx context.Context, address string) (*core.Identity, error) {
	id, err := s.client.Get(ctx, redisAddressPrefix+address).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	identity, err := s.Get(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		// The claim points at an identity hash that was never written,
		// the state an insert interrupted mid-flight leaves behind.
		// Release it so the address can be claimed again.
		s.client.Del(ctx, redisAddressPrefix+address)
	}
	return identity, err
}

// Get resolves an identity by id.
func (s *RedisStore) Get(ctx context.Context, id string) (*core.Identity, error) {
	fields, err := s.client.HGetAll(ctx, redisIdentityPrefix+id).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, core.ErrNotFound
	}
	return identityFromFields(id, fields)
}

// Insert stores a new identity. Claiming the address key with SETNX first
// makes concurrent inserts for one address resolve to a single winner; the
// losers observe core.ErrDuplicateAddress.
func (s *RedisStore) Insert(ctx context.Context, identity *core.Identity) error {
	claimed, err := s.claimAddress(ctx, identity)
	if err != nil {
		return err
	}
	if !claimed {
		return core.ErrDuplicateAddress
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, redisIdentityPrefix+identity.ID,
		"address", identity.Address,
		"name", identity.Name,
		"role", string(identity.Role),
		"created_at", strconv.FormatInt(identity.CreatedAt.UnixMilli(), 10),
	)
	pipe.SAdd(ctx, redisIdentitySet, identity.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		// Release the claim so a retry can create the identity. The
		// caller's context may already be cancelled here; the cleanup
		// must still run or the address stays claimed with no identity
		// behind it.
		s.client.Del(context.WithoutCancel(ctx), redisAddressPrefix+identity.Address)
		return fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	return nil
}

// claimAddress takes the address key for the identity being inserted. A key
// already held by an identity that was never fully written (an earlier
// interrupted insert) is released and claimed again.
func (s *RedisStore) claimAddress(ctx context.Context, identity *core.Identity) (bool, error) {
	addressKey := redisAddressPrefix + identity.Address
	for attempt := 0; attempt < 2; attempt++ {
		claimed, err := s.client.SetNX(ctx, addressKey, identity.ID, 0).Result()
		if err != nil {
			return false, fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
		}
		if claimed {
			return true, nil
		}

		holder, err := s.client.Get(ctx, addressKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Holder released between SetNX and Get; claim again.
				continue
			}
			return false, fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
		}
		exists, err := s.client.Exists(ctx, redisIdentityPrefix+holder).Result()
		if err != nil {
			return false, fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
		}
		if exists > 0 {
			return false, nil
		}
		s.client.Del(ctx, addressKey)
	}
	return false, nil
}

// UpdateRole patches the role field of an existing identity.
func (s *RedisStore) UpdateRole(ctx context.Context, id string, role core.Role) (*core.Identity, error) {
	identity, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.client.HSet(ctx, redisIdentityPrefix+id, "role", string(role)).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	identity.Role = role
	return identity, nil
}

// List returns all identities. The per-identity reads go through one
// pipeline instead of a round trip per id.
func (s *RedisStore) List(ctx context.Context) ([]*core.Identity, error) {
	ids, err := s.client.SMembers(ctx, redisIdentitySet).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, redisIdentityPrefix+id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}

	identities := make([]*core.Identity, 0, len(ids))
	for i, id := range ids {
		fields := cmds[i].Val()
		if len(fields) == 0 {
			continue
		}
		identity, err := identityFromFields(id, fields)
		if err != nil {
			return nil, err
		}
		identities = append(identities, identity)
	}
	return identities, nil
}

func identityFromFields(id string, fields map[string]string) (*core.Identity, error) {
	millis, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt created_at for identity %s", core.ErrStorageUnavailable, id)
	}
	return &core.Identity{
		ID:        id,
		Address:   fields["address"],
		Name:      fields["name"],
		Role:      core.Role(fields["role"]),
		CreatedAt: time.UnixMilli(millis).UTC(),
	}, nil
}
