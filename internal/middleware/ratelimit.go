// ratelimit.go provides Gin middleware that enforces per-client token-bucket
// rate limits, returning 429 responses when the configured requests-per-minute
// threshold is exceeded.
package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/propllia/backoffice/internal/config"
	"github.com/propllia/backoffice/internal/safego"
)

// rateLimitEntry tracks the bucket state for a single client IP.
type rateLimitEntry struct {
	tokens     float64
	lastUpdate time.Time
}

// RateLimiter implements an in-memory token bucket per client IP. Buckets for
// idle clients are pruned by a background goroutine started at construction;
// call Stop during shutdown to terminate it.
type RateLimiter struct {
	cfg     config.RateLimitConfig
	entries map[string]*rateLimitEntry
	mu      sync.Mutex
	stopCh  chan struct{}
}

// NewRateLimiter creates a rate limiter with the given config and starts its
// cleanup loop.
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		cfg:     cfg,
		entries: make(map[string]*rateLimitEntry),
		stopCh:  make(chan struct{}),
	}
	safego.Go(rl.cleanupLoop)
	return rl
}

// Stop terminates the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	cutoff := time.Now().Add(-10 * time.Minute)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, entry := range rl.entries {
		if entry.lastUpdate.Before(cutoff) {
			delete(rl.entries, ip)
		}
	}
}

// allow refills the client's bucket and attempts to take one token.
func (rl *RateLimiter) allow(ip string) bool {
	now := time.Now()
	refillRate := float64(rl.cfg.RequestsPerMinute) / 60.0
	burst := float64(rl.cfg.BurstSize)
	if burst < 1 {
		burst = 1
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.entries[ip]
	if !ok {
		entry = &rateLimitEntry{tokens: burst, lastUpdate: now}
		rl.entries[ip] = entry
	}

	entry.tokens += now.Sub(entry.lastUpdate).Seconds() * refillRate
	if entry.tokens > burst {
		entry.tokens = burst
	}
	entry.lastUpdate = now

	if entry.tokens < 1 {
		return false
	}
	entry.tokens--
	return true
}

// Middleware returns the Gin handler enforcing this limiter. Disabled
// limiters pass every request through.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.cfg.Enabled {
			c.Next()
			return
		}
		if !rl.allow(c.ClientIP()) {
			c.Header("Retry-After", strconv.Itoa(60/max(rl.cfg.RequestsPerMinute, 1)+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests",
			})
			return
		}
		c.Next()
	}
}
