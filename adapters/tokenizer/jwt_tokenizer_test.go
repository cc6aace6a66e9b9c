package tokenizer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keel-labs/walletgate/core"
)

func newTestTokenizer(t *testing.T) *JWTTokenizer {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return &JWTTokenizer{signKey: key, accessTTL: DefaultAccessTTL}
}

func testIdentity() *core.Identity {
	return &core.Identity{
		ID:        "id-1",
		Address:   "0xd8da6bf26964af9d7eed9e03e53415d37aa96045",
		Name:      "0xd8da6bf26964af9d7eed9e03e53415d37aa96045",
		Role:      core.RoleUser,
		CreatedAt: time.Now().UTC(),
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tk := newTestTokenizer(t)

	token, err := tk.IdentityToToken(testIdentity())
	require.NoError(t, err)

	id, err := tk.TokenToIdentityID(token)
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)
}

func TestTokenFromOtherKeyRejected(t *testing.T) {
	issuer := newTestTokenizer(t)
	verifier := newTestTokenizer(t)

	token, err := issuer.IdentityToToken(testIdentity())
	require.NoError(t, err)

	_, err = verifier.TokenToIdentityID(token)
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestGarbageTokenRejected(t *testing.T) {
	tk := newTestTokenizer(t)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, err := tk.TokenToIdentityID(token)
		assert.ErrorIs(t, err, core.ErrInvalidToken, "token %q", token)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	tk := newTestTokenizer(t)
	tk.accessTTL = -time.Minute

	token, err := tk.IdentityToToken(testIdentity())
	require.NoError(t, err)

	_, err = tk.TokenToIdentityID(token)
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}
