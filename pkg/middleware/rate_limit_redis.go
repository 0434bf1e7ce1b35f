package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/wipefix/wipefix/backend/go-services/pkg/logger"
	"github.com/wipefix/wipefix/backend/go-services/pkg/metrics"
)

// nowFunc picks the window bucket; tests move it alongside miniredis.
var nowFunc = time.Now

// RedisRateLimitMiddleware provides a fixed-window limiter shared by every
// replica. It INCRs a per-window key and allows floor(rps*window)+burst hits.
// Without a client it falls back to the in-process limiter.
func RedisRateLimitMiddleware(client *redis.Client, scope string, rps float64, burst int, window time.Duration) gin.HandlerFunc {
	if client == nil {
		return RateLimitMiddleware(scope, rps, burst)
	}
	windowSeconds := int(window.Seconds())
	if windowSeconds <= 0 {
		windowSeconds = 1
	}
	allowedPerWindow := int(rps*float64(windowSeconds)) + burst
	return func(c *gin.Context) {
		bucket := nowFunc().Unix() / int64(windowSeconds)
		redisKey := fmt.Sprintf("rl:%s:%d", clientKey(c, scope), bucket)

		ctx := c.Request.Context()
		cnt, err := client.Incr(ctx, redisKey).Result()
		if err != nil {
			logger.Warnw("rate limit check failed", map[string]interface{}{"scope": scope, "error": err.Error()})
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Rate limit check failed"})
			return
		}
		if cnt == 1 {
			_ = client.Expire(ctx, redisKey, time.Duration(windowSeconds+1)*time.Second).Err()
		}
		if int(cnt) > allowedPerWindow {
			c.Header("Retry-After", strconv.Itoa(windowSeconds))
			metrics.RateLimitRejected.WithLabelValues("redis").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("redis").Inc()
		c.Next()
	}
}
