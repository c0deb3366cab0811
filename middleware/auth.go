// middleware/jwt_auth.go
package middleware

import (
	"net/http"
	"strings"

	"reservo/models"
	"reservo/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWTAuthMiddleware verifies the bearer token and stores the caller as the request actor.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.JSONError(c, http.StatusUnauthorized, "unauthenticated", "Missing or invalid Authorization header")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		actor, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.GetLogger().Debug("Token rejected", zap.Error(err))
			utils.JSONError(c, http.StatusUnauthorized, "unauthenticated", "Invalid token")
			return
		}

		c.Set(utils.ActorKey, actor)
		c.Next()
	}
}

// ActorFrom returns the authenticated caller. ok is false on unauthenticated routes.
func ActorFrom(c *gin.Context) (models.Actor, bool) {
	v, exists := c.Get(utils.ActorKey)
	if !exists {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}
