// middleware/rate_limiter.go

package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pbirs-tools/admin-api/db"
	logger "github.com/pbirs-tools/admin-api/logging"
)

// RateLimiter enforces a sliding-window request limit per client IP backed by
// Redis. When Redis is not configured it falls back to an in-process window,
// which is sufficient for a single instance.
func RateLimiter(limit int, per time.Duration, useRedis bool) gin.HandlerFunc {
	local := newLocalWindow()

	return func(c *gin.Context) {
		key := c.ClientIP()

		var allowed bool
		var err error
		if useRedis {
			allowed, err = db.RateLimit(c, key, limit, per)
			if err != nil {
				logger.Error("Rate limiting failed", zap.Error(err), zap.String("ip", key))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limiting failed"})
				c.Abort()
				return
			}
		} else {
			allowed = local.allow(key, limit, per)
		}

		// Set rate limit headers
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Duration", per.String())

		if !allowed {
			logger.Warn("Rate limit exceeded",
				zap.String("ip", key),
				zap.Int("limit", limit),
				zap.Duration("per", per))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			c.Abort()
			return
		}

		c.Next()
	}
}

type localWindow struct {
	mu      sync.Mutex
	history map[string][]time.Time
}

func newLocalWindow() *localWindow {
	return &localWindow{history: make(map[string][]time.Time)}
}

func (w *localWindow) allow(key string, limit int, per time.Duration) bool {
	now := time.Now()
	cutoff := now.Add(-per)

	w.mu.Lock()
	defer w.mu.Unlock()

	kept := w.history[key][:0]
	for _, t := range w.history[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	kept = append(kept, now)
	w.history[key] = kept

	return len(kept) <= limit
}
