package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// shortPaths maps short paths to their canonical location.
var shortPaths = map[string]string{
	"/admin":    "/myadmin",
	"/login":    "/users/login",
	"/register": "/users/register",
}

// RedirectMiddleware permanently redirects short paths, keeping any suffix
// after the matched prefix.
func RedirectMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for from, to := range shortPaths {
			if path == from || strings.HasPrefix(path, from+"/") {
				newPath := to + path[len(from):]

				c.Redirect(http.StatusMovedPermanently, newPath)
				c.Abort()
				return
			}
		}

		c.Next()
	}
}
