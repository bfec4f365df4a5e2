package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spu-nas/nasweb/util/metrics"
)

// MetricsMiddleware counts requests and their latency per route template.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
