package middleware

import (
	"slices"

	"bitwise74/recipe-api/internal/model"
	"bitwise74/recipe-api/pkg/apperr"

	"github.com/gin-gonic/gin"
)

// RequireRole must run after the JWT middleware
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			c.Error(ErrNoToken)
			c.Abort()
			return
		}

		if !slices.Contains(roles, u.Role) {
			c.Error(apperr.Forbidden("You don't have permission to do this"))
			c.Abort()
			return
		}

		c.Next()
	}
}
