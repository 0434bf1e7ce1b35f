package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/wipefix/wipefix/backend/go-services/pkg/metrics"
	"golang.org/x/time/rate"
)

// limiterStore holds one token bucket per client key.
type limiterStore struct {
	rps     float64
	burst   int
	buckets sync.Map // map[string]*rate.Limiter
}

func (s *limiterStore) get(key string) *rate.Limiter {
	if v, ok := s.buckets.Load(key); ok {
		return v.(*rate.Limiter)
	}
	v, _ := s.buckets.LoadOrStore(key, rate.NewLimiter(rate.Limit(s.rps), s.burst))
	return v.(*rate.Limiter)
}

// clientKey scopes the caller's IP so separate limiters never share buckets.
func clientKey(c *gin.Context, scope string) string {
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return scope + ":ip:" + ip
}

// RateLimitMiddleware returns a Gin middleware enforcing an in-process token
// bucket per client IP. rps = allowed events per second, burst = bucket size.
// Each call gets its own store.
func RateLimitMiddleware(scope string, rps float64, burst int) gin.HandlerFunc {
	store := &limiterStore{rps: rps, burst: burst}
	return func(c *gin.Context) {
		if !store.get(clientKey(c, scope)).Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
