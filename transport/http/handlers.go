package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/keel-labs/walletgate/core"
	"github.com/keel-labs/walletgate/ports"
	"github.com/keel-labs/walletgate/service"
)

// AuthHandlers contains HTTP handlers for auth and admin endpoints
type AuthHandlers struct {
	authService   *service.AuthService
	roleAuthority *service.RoleAuthority
	tokenizer     ports.Tokenizer
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService, roleAuthority *service.RoleAuthority, tokenizer ports.Tokenizer) *AuthHandlers {
	return &AuthHandlers{
		authService:   authService,
		roleAuthority: roleAuthority,
		tokenizer:     tokenizer,
	}
}

// Challenge handles the challenge request
func (h *AuthHandlers) Challenge(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required"`
		Domain  string `json:"domain" binding:"required"`
		ChainID int    `json:"chain_id"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	message, err := h.authService.GenerateChallenge(req.Address, req.Domain, req.ChainID)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidAddress):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet address"})
		case errors.Is(err, core.ErrInvalidDomain):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid domain"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create challenge"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}

// Login handles the login request
func (h *AuthHandlers) Login(c *gin.Context) {
	var req struct {
		Address   string `json:"address" binding:"required"`
		Signature string `json:"signature" binding:"required"`
		Message   string `json:"message" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	identity, err := h.authService.Login(c.Request.Context(), req.Address, req.Signature, req.Message)
	if err != nil {
		status, msg := loginErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	accessToken, err := h.tokenizer.IdentityToToken(identity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue access token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"identity_id":  identity.ID,
		"address":      identity.Address,
		"role":         identity.Role,
		"access_token": accessToken,
		"token_type":   "Bearer",
	})
}

func loginErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidAddress):
		return http.StatusBadRequest, "Invalid wallet address"
	case errors.Is(err, core.ErrMalformedMessage):
		return http.StatusBadRequest, "Malformed challenge message"
	case errors.Is(err, core.ErrSignatureMismatch):
		return http.StatusUnauthorized, "Signature does not match address"
	case errors.Is(err, core.ErrVerificationFailed):
		return http.StatusUnauthorized, "Signature verification failed"
	case errors.Is(err, core.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "Identity store unavailable"
	default:
		return http.StatusInternalServerError, "Authentication failed"
	}
}

// authenticatedID reads the identity id placed in the context by the auth
// middleware. An empty id means the handler was mounted without it; that is
// a wiring bug, reported as a 500.
func authenticatedID(c *gin.Context) (string, bool) {
	identityID := c.GetString(ContextIdentityID)
	if identityID == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Identity not found in context"})
		return "", false
	}
	return identityID, true
}

// Me returns information about the authenticated identity
func (h *AuthHandlers) Me(c *gin.Context) {
	identityID, ok := authenticatedID(c)
	if !ok {
		return
	}

	role, err := h.roleAuthority.CurrentRole(c.Request.Context(), identityID)
	if err != nil {
		c.JSON(adminErrorStatus(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"identity_id": identityID,
		"role":        role,
	})
}

// Role returns the current role of the authenticated identity
func (h *AuthHandlers) Role(c *gin.Context) {
	identityID, ok := authenticatedID(c)
	if !ok {
		return
	}

	role, err := h.roleAuthority.CurrentRole(c.Request.Context(), identityID)
	if err != nil {
		c.JSON(adminErrorStatus(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"role": role})
}

// SetRole updates the role of the identity linked to a wallet address.
// ADMIN only: the role authority re-checks the acting identity.
func (h *AuthHandlers) SetRole(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required"`
		Role    string `json:"role" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	role, err := core.ParseRole(req.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role"})
		return
	}

	actingID, ok := authenticatedID(c)
	if !ok {
		return
	}
	updated, err := h.roleAuthority.SetRole(c.Request.Context(), actingID, req.Address, role)
	if err != nil {
		c.JSON(adminErrorStatus(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"identity_id": updated.ID,
		"address":     updated.Address,
		"role":        updated.Role,
	})
}

// ListIdentities returns all identities. ADMIN only.
func (h *AuthHandlers) ListIdentities(c *gin.Context) {
	actingID, ok := authenticatedID(c)
	if !ok {
		return
	}

	identities, err := h.roleAuthority.ListIdentities(c.Request.Context(), actingID)
	if err != nil {
		c.JSON(adminErrorStatus(err))
		return
	}

	out := make([]gin.H, 0, len(identities))
	for _, identity := range identities {
		out = append(out, gin.H{
			"id":      identity.ID,
			"address": identity.Address,
			"role":    identity.Role,
		})
	}
	c.JSON(http.StatusOK, gin.H{"identities": out})
}

func adminErrorStatus(err error) (int, gin.H) {
	var permErr *core.PermissionError
	switch {
	case errors.As(err, &permErr):
		return http.StatusForbidden, gin.H{
			"error": "Permission denied",
			"have":  permErr.Have,
			"want":  permErr.Want,
		}
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, gin.H{"error": "Identity not found"}
	case errors.Is(err, core.ErrInvalidRole):
		return http.StatusBadRequest, gin.H{"error": "Unknown role"}
	case errors.Is(err, core.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, gin.H{"error": "Identity store unavailable"}
	default:
		return http.StatusInternalServerError, gin.H{"error": "Operation failed"}
	}
}
