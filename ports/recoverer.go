package ports

import "github.com/ethereum/go-ethereum/common"

// AddressRecoverer is the injected cryptographic capability that recovers
// the signing address from a message and its signature. Production code
// uses the secp256k1 implementation in internal/eth; tests may substitute
// a fake.
type AddressRecoverer interface {
	RecoverAddress(message string, signature []byte) (common.Address, error)
}
