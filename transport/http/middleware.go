package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/keel-labs/walletgate/ports"
)

// ContextIdentityID is the gin context key holding the authenticated
// identity id.
const ContextIdentityID = "identityID"

// AuthMiddleware creates middleware that resolves the bearer token to the
// authenticated identity id. The role is never read from the token.
func AuthMiddleware(tokenizer ports.Tokenizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")

		identityID, err := tokenizer.TokenToIdentityID(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(ContextIdentityID, identityID)
		c.Next()
	}
}
