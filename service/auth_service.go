package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/common"

	"github.com/keel-labs/walletgate/core"
	"github.com/keel-labs/walletgate/internal/obs"
	"github.com/keel-labs/walletgate/ports"
	"github.com/keel-labs/walletgate/siwe"
)

// AuthService sequences the wallet sign-in flow: challenge issuance, and on
// login, message verification followed by account resolution. It is the only
// component whose side effect on the identity store goes beyond role updates:
// a first successful login creates the identity.
type AuthService struct {
	builder  *siwe.Builder
	verifier *SignatureVerifier
	resolver *AccountResolver
	eventPub ports.EventPublisher
}

// NewAuthService creates the authentication entry point. eventPub may be nil
// when no event transport is configured.
func NewAuthService(
	builder *siwe.Builder,
	verifier *SignatureVerifier,
	resolver *AccountResolver,
	eventPub ports.EventPublisher,
) *AuthService {
	return &AuthService{
		builder:  builder,
		verifier: verifier,
		resolver: resolver,
		eventPub: eventPub,
	}
}

// GenerateChallenge returns the serialized sign-in message for the given
// address and domain. A chainID of zero selects the configured default.
func (s *AuthService) GenerateChallenge(address, domain string, chainID int) (string, error) {
	challenge, err := s.builder.Build(address, domain, chainID)
	if err != nil {
		return "", err
	}
	obs.ObserveChallengeIssued()
	return siwe.Serialize(challenge), nil
}

// Login authenticates a wallet owner. Verification strictly precedes account
// resolution: an invalid signature never reaches the store. Login performs no
// role checks; role is read, never asserted, during login.
func (s *AuthService) Login(ctx context.Context, claimedAddress, signature, message string) (*core.Identity, error) {
	if !common.IsHexAddress(claimedAddress) {
		obs.ObserveLogin("invalid_address")
		return nil, core.ErrInvalidAddress
	}
	normalized := core.NormalizeAddress(claimedAddress)

	if _, err := s.verifier.Verify(message, signature, normalized); err != nil {
		obs.ObserveLogin(loginOutcome(err))
		return nil, err
	}

	identity, created, err := s.resolver.ResolveOrCreate(ctx, normalized, core.DefaultProfile(normalized))
	if err != nil {
		obs.ObserveLogin("storage_error")
		return nil, fmt.Errorf("failed to resolve identity: %w", err)
	}

	if created {
		obs.ObserveIdentityCreated()
		if s.eventPub != nil {
			if err := s.eventPub.PublishIdentityCreated(ctx, identity); err != nil {
				// Login already succeeded; a lost event must not fail it.
				log.Printf("failed to publish identity created event: %v", err)
			}
		}
	}

	obs.ObserveLogin("success")
	return identity, nil
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, core.ErrMalformedMessage):
		return "malformed_message"
	case errors.Is(err, core.ErrSignatureMismatch):
		return "signature_mismatch"
	case errors.Is(err, core.ErrVerificationFailed):
		return "verification_failed"
	default:
		return "error"
	}
}
