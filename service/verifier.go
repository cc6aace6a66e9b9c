package service

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/keel-labs/walletgate/core"
	"github.com/keel-labs/walletgate/ports"
	"github.com/keel-labs/walletgate/siwe"
)

// SignatureVerifier is the single decision point for challenge-signature
// verification. It is pure over its inputs and the injected recoverer.
type SignatureVerifier struct {
	recoverer ports.AddressRecoverer
}

// NewSignatureVerifier creates a verifier over the given recovery primitive.
func NewSignatureVerifier(recoverer ports.AddressRecoverer) *SignatureVerifier {
	return &SignatureVerifier{recoverer: recoverer}
}

// Verify parses the challenge message, recovers the signing address from the
// signature and confirms it matches claimedAddress case-insensitively.
// Returns the parsed challenge on success.
func (v *SignatureVerifier) Verify(message, signature, claimedAddress string) (*core.Challenge, error) {
	challenge, err := siwe.Parse(message)
	if err != nil {
		return nil, err
	}

	claimed := core.NormalizeAddress(claimedAddress)
	if core.NormalizeAddress(challenge.Address) != claimed {
		return nil, fmt.Errorf("%w: challenge was issued for a different address", core.ErrSignatureMismatch)
	}

	sig, err := decodeSignature(signature)
	if err != nil {
		return nil, err
	}

	recovered, err := v.recoverer.RecoverAddress(message, sig)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrVerificationFailed, err)
	}

	if core.NormalizeAddress(recovered.Hex()) != claimed {
		return nil, core.ErrSignatureMismatch
	}

	return challenge, nil
}

func decodeSignature(signature string) ([]byte, error) {
	if !strings.HasPrefix(signature, "0x") {
		signature = "0x" + signature
	}
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode signature: %v", core.ErrVerificationFailed, err)
	}
	if len(sig) != 65 {
		return nil, fmt.Errorf("%w: signature must be 65 bytes", core.ErrVerificationFailed)
	}
	return sig, nil
}
