package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spu-nas/nasweb/logger"
)

// AccessLogMiddleware writes one debug line per request.
func AccessLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("%s %s %d %s %s",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start).Round(time.Microsecond),
			c.ClientIP(),
		)
	}
}
