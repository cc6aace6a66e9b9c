package http

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keel-labs/walletgate/adapters/store"
	"github.com/keel-labs/walletgate/adapters/tokenizer"
	"github.com/keel-labs/walletgate/core"
	"github.com/keel-labs/walletgate/internal/eth"
	"github.com/keel-labs/walletgate/ports"
	"github.com/keel-labs/walletgate/service"
	"github.com/keel-labs/walletgate/siwe"
)

type testEnv struct {
	router    *gin.Engine
	store     *store.MemoryStore
	tokenizer ports.Tokenizer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	signKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	memStore := store.NewMemoryStore()
	verifier := service.NewSignatureVerifier(eth.Recoverer{})
	resolver := service.NewAccountResolver(memStore)
	authService := service.NewAuthService(siwe.NewBuilder(), verifier, resolver, nil)
	roleAuthority := service.NewRoleAuthority(memStore, nil)
	accessTokenizer := tokenizer.NewJWTTokenizer(signKey)

	return &testEnv{
		router:    SetupRouter(authService, roleAuthority, accessTokenizer),
		store:     memStore,
		tokenizer: accessTokenizer,
	}
}

func (e *testEnv) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func newWallet(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key, crypto.PubkeyToAddress(key.PublicKey).Hex()
}

func signMessage(t *testing.T, key *ecdsa.PrivateKey, message string) string {
	t.Helper()
	sig, err := crypto.Sign(eth.HashMessage([]byte(message)), key)
	require.NoError(t, err)
	sig[64] += 27
	return hexutil.Encode(sig)
}

// login drives the full challenge/sign/login flow and returns the response body.
func (e *testEnv) login(t *testing.T, key *ecdsa.PrivateKey, address string) map[string]any {
	t.Helper()
	w := e.do(t, http.MethodPost, "/auth/challenge", "", gin.H{
		"address": address,
		"domain":  "example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)
	message := decode(t, w)["message"].(string)

	w = e.do(t, http.MethodPost, "/auth/login", "", gin.H{
		"address":   address,
		"signature": signMessage(t, key, message),
		"message":   message,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode(t, w)
}

func TestChallengeEndpoint(t *testing.T) {
	env := newTestEnv(t)
	_, address := newWallet(t)

	w := env.do(t, http.MethodPost, "/auth/challenge", "", gin.H{
		"address": address,
		"domain":  "example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)

	message := decode(t, w)["message"].(string)
	assert.Contains(t, message, address)
	assert.Contains(t, message, "example.com")
}

func TestChallengeEndpointRejectsBadAddress(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/auth/challenge", "", gin.H{
		"address": "nope",
		"domain":  "example.com",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)
	key, address := newWallet(t)

	body := env.login(t, key, address)
	assert.Equal(t, "USER", body["role"])
	assert.NotEmpty(t, body["identity_id"])
	assert.NotEmpty(t, body["access_token"])

	// A second login with a fresh challenge resolves to the same identity.
	again := env.login(t, key, address)
	assert.Equal(t, body["identity_id"], again["identity_id"])
}

func TestLoginRejectsWrongSigner(t *testing.T) {
	env := newTestEnv(t)
	_, address := newWallet(t)
	otherKey, _ := newWallet(t)

	w := env.do(t, http.MethodPost, "/auth/challenge", "", gin.H{
		"address": address,
		"domain":  "example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)
	message := decode(t, w)["message"].(string)

	w = env.do(t, http.MethodPost, "/auth/login", "", gin.H{
		"address":   address,
		"signature": signMessage(t, otherKey, message),
		"message":   message,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginRejectsMalformedMessage(t *testing.T) {
	env := newTestEnv(t)
	key, address := newWallet(t)

	w := env.do(t, http.MethodPost, "/auth/login", "", gin.H{
		"address":   address,
		"signature": signMessage(t, key, "junk"),
		"message":   "junk",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/me", "/api/role", "/api/admin/identities"} {
		w := env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := env.do(t, http.MethodGet, "/api/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleEndpoint(t *testing.T) {
	env := newTestEnv(t)
	key, address := newWallet(t)

	body := env.login(t, key, address)
	token := body["access_token"].(string)

	w := env.do(t, http.MethodGet, "/api/role", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "USER", decode(t, w)["role"])
}

func seedAdmin(t *testing.T, env *testEnv) string {
	t.Helper()
	admin := &core.Identity{
		ID:        uuid.New().String(),
		Address:   "0x00000000000000000000000000000000000000aa",
		Name:      "admin",
		Role:      core.RoleAdmin,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, env.store.Insert(context.Background(), admin))
	token, err := env.tokenizer.IdentityToToken(admin)
	require.NoError(t, err)
	return token
}

func TestSetRoleAsAdmin(t *testing.T) {
	env := newTestEnv(t)
	key, address := newWallet(t)
	env.login(t, key, address)

	adminToken := seedAdmin(t, env)

	w := env.do(t, http.MethodPost, "/api/admin/role", adminToken, gin.H{
		"address": address,
		"role":    "ADMIN",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ADMIN", decode(t, w)["role"])

	identity, err := env.store.FindByAddress(context.Background(), core.NormalizeAddress(address))
	require.NoError(t, err)
	assert.Equal(t, core.RoleAdmin, identity.Role)
}

func TestSetRoleDeniedForUser(t *testing.T) {
	env := newTestEnv(t)
	key, address := newWallet(t)
	body := env.login(t, key, address)
	userToken := body["access_token"].(string)

	w := env.do(t, http.MethodPost, "/api/admin/role", userToken, gin.H{
		"address": address,
		"role":    "ADMIN",
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	resp := decode(t, w)
	assert.Equal(t, "USER", resp["have"])
	assert.Equal(t, "ADMIN", resp["want"])

	// The target's role is unchanged.
	identity, err := env.store.FindByAddress(context.Background(), core.NormalizeAddress(address))
	require.NoError(t, err)
	assert.Equal(t, core.RoleUser, identity.Role)
}

func TestSetRoleUnknownRole(t *testing.T) {
	env := newTestEnv(t)
	adminToken := seedAdmin(t, env)

	w := env.do(t, http.MethodPost, "/api/admin/role", adminToken, gin.H{
		"address": "0x00000000000000000000000000000000000000bb",
		"role":    "OWNER",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetRoleTargetNotFound(t *testing.T) {
	env := newTestEnv(t)
	adminToken := seedAdmin(t, env)

	w := env.do(t, http.MethodPost, "/api/admin/role", adminToken, gin.H{
		"address": "0x00000000000000000000000000000000000000bb",
		"role":    "ADMIN",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListIdentitiesAsAdmin(t *testing.T) {
	env := newTestEnv(t)
	key, address := newWallet(t)
	env.login(t, key, address)
	adminToken := seedAdmin(t, env)

	w := env.do(t, http.MethodGet, "/api/admin/identities", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	identities := decode(t, w)["identities"].([]any)
	assert.Len(t, identities, 2)
}

func TestListIdentitiesDeniedForUser(t *testing.T) {
	env := newTestEnv(t)
	key, address := newWallet(t)
	body := env.login(t, key, address)

	w := env.do(t, http.MethodGet, "/api/admin/identities", body["access_token"].(string), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
