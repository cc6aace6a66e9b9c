package http

import (
	"github.com/gin-gonic/gin"

	"github.com/keel-labs/walletgate/internal/obs"
	"github.com/keel-labs/walletgate/ports"
	"github.com/keel-labs/walletgate/service"
)

// SetupRouter sets up the Gin router
func SetupRouter(authService *service.AuthService, roleAuthority *service.RoleAuthority, tokenizer ports.Tokenizer) *gin.Engine {
	router := gin.Default()

	handlers := NewAuthHandlers(authService, roleAuthority, tokenizer)

	// Auth routes
	auth := router.Group("/auth")
	{
		auth.POST("/challenge", handlers.Challenge)
		auth.POST("/login", handlers.Login)
	}

	// Protected API routes
	api := router.Group("/api")
	api.Use(AuthMiddleware(tokenizer))
	{
		api.GET("/me", handlers.Me)
		api.GET("/role", handlers.Role)

		admin := api.Group("/admin")
		{
			admin.POST("/role", handlers.SetRole)
			admin.GET("/identities", handlers.ListIdentities)
		}
	}

	router.GET("/metrics", gin.WrapH(obs.Handler()))

	return router
}
