// Package eth wraps the secp256k1 signature-recovery primitive used to
// prove wallet ownership.
package eth

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength is the expected R || S || V signature size.
const SignatureLength = 65

// HashMessage constructs the EIP-191 prefixed hash:
// keccak256("\x19Ethereum Signed Message:\n" + len(msg) + msg)
func HashMessage(msg []byte) []byte {
	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(msg))
	return crypto.Keccak256([]byte(prefix), msg)
}

// Recover extracts the signer address from an EIP-191 personal-sign
// signature. sig must be 65 bytes, with V in {0,1} or {27,28}.
func Recover(msg []byte, sig []byte) (common.Address, error) {
	if len(sig) != SignatureLength {
		return common.Address{}, errors.New("signature must be 65 bytes")
	}
	hash := HashMessage(msg)

	// Wallets emit V as 27/28, ecrecover expects 0/1
	sigCopy := make([]byte, SignatureLength)
	copy(sigCopy, sig)
	if sigCopy[64] >= 27 {
		sigCopy[64] -= 27
	}

	pub, err := crypto.SigToPub(hash, sigCopy)
	if err != nil {
		return common.Address{}, fmt.Errorf("ecrecover: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Recoverer is the production ports.AddressRecoverer.
type Recoverer struct{}

// RecoverAddress recovers the signing address of message under EIP-191.
func (Recoverer) RecoverAddress(message string, signature []byte) (common.Address, error) {
	return Recover([]byte(message), signature)
}
