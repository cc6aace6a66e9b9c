package ports

import "github.com/keel-labs/walletgate/core"

// Tokenizer converts between an authenticated identity and the bearer
// credential handed to the HTTP layer. The token carries the identity id
// and nothing else the server trusts; role is always re-read from the
// store when a request is authorized.
type Tokenizer interface {
	IdentityToToken(identity *core.Identity) (string, error)
	TokenToIdentityID(token string) (string, error)
}
