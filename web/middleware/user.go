package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/spu-nas/nasweb/web/service"
)

// CurrentUserMiddleware exposes the logged-in user, if any, as "user" in the
// gin context for templates.
func CurrentUserMiddleware() gin.HandlerFunc {
	authService := service.AuthService{}

	return func(c *gin.Context) {
		if user := authService.CurrentUser(c); user != nil {
			c.Set("user", user)
		}
		c.Next()
	}
}
