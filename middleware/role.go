package middleware

import (
	"net/http"

	"reservo/models"
	"reservo/utils"

	"github.com/gin-gonic/gin"
)

// RequireRole admits only callers whose token carries one of roles. It must run after JWTAuthMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			utils.JSONError(c, http.StatusUnauthorized, "unauthenticated", "Authentication required")
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		utils.JSONError(c, http.StatusForbidden, "forbidden", "This endpoint requires role "+rolesText(roles))
	}
}

func rolesText(roles []models.Role) string {
	s := ""
	for i, r := range roles {
		if i > 0 {
			s += " or "
		}
		s += string(r)
	}
	return s
}
