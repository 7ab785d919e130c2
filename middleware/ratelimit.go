package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// rateLimiter is a fixed-window per-IP counter. Good enough to keep brute
// force attempts against /api/login from being free; not a fairness device.
type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int
	period  time.Duration
}

type window struct {
	count   int
	resetAt time.Time
}

// RateLimiter returns middleware allowing at most limit requests per client
// IP within each period.
func RateLimiter(limit int, period time.Duration) gin.HandlerFunc {
	rl := &rateLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		period:  period,
	}

	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for range ticker.C {
			rl.cleanup()
		}
	}()

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		rl.mu.Lock()
		w, ok := rl.clients[ip]
		if !ok || now.After(w.resetAt) {
			rl.clients[ip] = &window{count: 1, resetAt: now.Add(rl.period)}
			rl.mu.Unlock()
			c.Next()
			return
		}
		if w.count >= rl.limit {
			retryAfter := w.resetAt.Sub(now).Seconds()
			rl.mu.Unlock()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": retryAfter,
			})
			c.Abort()
			return
		}
		w.count++
		rl.mu.Unlock()
		c.Next()
	}
}

func (rl *rateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for ip, w := range rl.clients {
		if now.After(w.resetAt) {
			delete(rl.clients, ip)
		}
	}
}
