package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AccessClaims combines standard claims with the wallet address of the
// authenticated identity. The subject is the identity id.
type AccessClaims struct {
	jwt.RegisteredClaims
	Address string `json:"addr"`
}
