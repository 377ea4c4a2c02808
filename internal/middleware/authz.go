package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/upeu-dev/vinculacion-api/pkg/errors"
	"github.com/upeu-dev/vinculacion-api/pkg/response"
)

// Require guards a route with permission strings. The actor passes when it
// holds any of the listed permissions. Authorization is decided before any
// resource is loaded, so a denied actor learns nothing about the target.
func Require(permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := CurrentActor(c)
		if actor == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		for _, permission := range permissions {
			if actor.Can(permission) {
				c.Next()
				return
			}
		}
		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
