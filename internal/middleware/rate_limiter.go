package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanarios/sistema-kiosco/internal/apierror"
)

// RateLimiter is a fixed-window per-IP limiter for the public, unauthenticated
// endpoints (price check, login). Authenticated traffic is not limited.
func RateLimiter(maxRequests int, window time.Duration) gin.HandlerFunc {
	type bucket struct {
		count int
		reset time.Time
	}
	var (
		mu      sync.Mutex
		buckets = map[string]*bucket{}
	)

	return func(c *gin.Context) {
		now := time.Now()
		ip := c.ClientIP()

		mu.Lock()
		b, ok := buckets[ip]
		if !ok || now.After(b.reset) {
			b = &bucket{reset: now.Add(window)}
			buckets[ip] = b
			// Drop stale buckets opportunistically.
			if len(buckets) > 10000 {
				for k, v := range buckets {
					if now.After(v.reset) {
						delete(buckets, k)
					}
				}
			}
		}
		b.count++
		over := b.count > maxRequests
		mu.Unlock()

		if over {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("rate limit exceeded"))
			return
		}
		c.Next()
	}
}
