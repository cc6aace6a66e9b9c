// Package siwe builds and parses EIP-4361 (Sign-In with Ethereum) challenge
// messages. Serialize and Parse are exact inverses over valid challenges so
// the verifier can recover every field of the message the wallet signed.
package siwe

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/keel-labs/walletgate/core"
)

const (
	// NonceBytes is the entropy of a challenge nonce; hex encoding doubles it
	// to 32 characters on the wire.
	NonceBytes = 16

	headerSuffix = " wants you to sign in with your Ethereum account:"

	defaultStatement = "Sign in with your wallet account"
	defaultVersion   = "1"
	defaultChainID   = 2020
)

// Builder constructs challenges with fixed statement, protocol version and
// fallback chain id.
type Builder struct {
	Statement      string
	Version        string
	DefaultChainID int
}

// NewBuilder returns a builder with the stock statement, version "1" and the
// default chain id.
func NewBuilder() *Builder {
	return &Builder{
		Statement:      defaultStatement,
		Version:        defaultVersion,
		DefaultChainID: defaultChainID,
	}
}

// Build generates a fresh challenge for the given address and domain.
// A chainID of zero selects the builder default. The only side effect is
// randomness consumption for the nonce.
func (b *Builder) Build(address, domain string, chainID int) (*core.Challenge, error) {
	if !common.IsHexAddress(address) {
		return nil, core.ErrInvalidAddress
	}
	if strings.TrimSpace(domain) == "" {
		return nil, core.ErrInvalidDomain
	}
	if chainID == 0 {
		chainID = b.DefaultChainID
	}

	nonce, err := generateNonce()
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return &core.Challenge{
		Domain:    domain,
		Address:   address,
		Statement: b.Statement,
		URI:       "https://" + domain,
		Version:   b.Version,
		ChainID:   chainID,
		Nonce:     nonce,
		IssuedAt:  time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// Serialize renders the challenge in the EIP-4361 textual layout.
func Serialize(c *core.Challenge) string {
	var sb strings.Builder
	sb.WriteString(c.Domain)
	sb.WriteString(headerSuffix)
	sb.WriteString("\n")
	sb.WriteString(c.Address)
	sb.WriteString("\n\n")
	sb.WriteString(c.Statement)
	sb.WriteString("\n\n")
	sb.WriteString("URI: " + c.URI + "\n")
	sb.WriteString("Version: " + c.Version + "\n")
	sb.WriteString("Chain ID: " + strconv.Itoa(c.ChainID) + "\n")
	sb.WriteString("Nonce: " + c.Nonce + "\n")
	sb.WriteString("Issued At: " + c.IssuedAt)
	return sb.String()
}

// Parse reconstructs a challenge from its textual form. Any structural
// deviation fails with core.ErrMalformedMessage.
func Parse(text string) (*core.Challenge, error) {
	lines := strings.Split(text, "\n")
	if len(lines) != 10 {
		return nil, fmt.Errorf("%w: expected 10 lines, got %d", core.ErrMalformedMessage, len(lines))
	}

	domain, ok := strings.CutSuffix(lines[0], headerSuffix)
	if !ok || domain == "" {
		return nil, fmt.Errorf("%w: bad header line", core.ErrMalformedMessage)
	}

	address := lines[1]
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: bad address line", core.ErrMalformedMessage)
	}

	if lines[2] != "" || lines[4] != "" {
		return nil, fmt.Errorf("%w: missing statement separators", core.ErrMalformedMessage)
	}
	statement := lines[3]

	uri, err := field(lines[5], "URI: ")
	if err != nil {
		return nil, err
	}
	version, err := field(lines[6], "Version: ")
	if err != nil {
		return nil, err
	}
	chainField, err := field(lines[7], "Chain ID: ")
	if err != nil {
		return nil, err
	}
	chainID, convErr := strconv.Atoi(chainField)
	if convErr != nil || chainID <= 0 {
		return nil, fmt.Errorf("%w: bad chain id %q", core.ErrMalformedMessage, chainField)
	}
	nonce, err := field(lines[8], "Nonce: ")
	if err != nil {
		return nil, err
	}
	if len(nonce) < 2*NonceBytes {
		return nil, fmt.Errorf("%w: nonce too short", core.ErrMalformedMessage)
	}
	issuedAt, err := field(lines[9], "Issued At: ")
	if err != nil {
		return nil, err
	}
	if _, convErr := time.Parse(time.RFC3339, issuedAt); convErr != nil {
		return nil, fmt.Errorf("%w: bad issued-at timestamp %q", core.ErrMalformedMessage, issuedAt)
	}

	return &core.Challenge{
		Domain:    domain,
		Address:   address,
		Statement: statement,
		URI:       uri,
		Version:   version,
		ChainID:   chainID,
		Nonce:     nonce,
		IssuedAt:  issuedAt,
	}, nil
}

func field(line, prefix string) (string, error) {
	value, ok := strings.CutPrefix(line, prefix)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: missing %q field", core.ErrMalformedMessage, strings.TrimSuffix(prefix, ": "))
	}
	return value, nil
}

func generateNonce() (string, error) {
	bytes := make([]byte, NonceBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
