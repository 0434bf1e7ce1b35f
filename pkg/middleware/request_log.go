package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wipefix/wipefix/backend/go-services/pkg/logger"
)

// RequestLogger writes one structured line per request. Headers are never
// logged, so the Authorization credential stays out of the logs.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"client_ip":   c.ClientIP(),
		}
		if v := c.Param("version"); v != "" {
			fields["version"] = v
		}
		switch {
		case c.Writer.Status() >= 500:
			logger.Errorw("request failed", fields)
		case c.Writer.Status() >= 400:
			logger.Warnw("request rejected", fields)
		default:
			logger.Infow("request", fields)
		}
	}
}
