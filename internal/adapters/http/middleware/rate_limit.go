// Package middleware - rate limiting.
//
// Fixed-window counters with in-memory state. Good enough for a single
// instance; a multi-instance deployment would move the counters to Redis.
package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RateLimitConfig configures a limiter.
type RateLimitConfig struct {
	// Limit is the number of requests allowed per window.
	Limit int
	// Window is the counting window.
	Window time.Duration
	// KeyFunc derives the limiting key; defaults to client IP.
	KeyFunc func(*gin.Context) string
}

// DefaultRateLimitConfig returns the default configuration.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Limit:  100,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

// rateLimiter holds the per-key windows.
type rateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	config  *RateLimitConfig
}

type bucket struct {
	tokens    int
	lastReset time.Time
}

func newRateLimiter(config *RateLimitConfig) *rateLimiter {
	rl := &rateLimiter{
		buckets: make(map[string]*bucket),
		config:  config,
	}

	go rl.cleanup()

	return rl
}

// allow reports whether the request fits the window, with the remaining
// quota and the time until reset.
func (rl *rateLimiter) allow(key string) (bool, int, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, exists := rl.buckets[key]

	if !exists {
		rl.buckets[key] = &bucket{
			tokens:    rl.config.Limit - 1,
			lastReset: now,
		}
		return true, rl.config.Limit - 1, rl.config.Window
	}

	if now.Sub(b.lastReset) >= rl.config.Window {
		b.tokens = rl.config.Limit - 1
		b.lastReset = now
		return true, b.tokens, rl.config.Window
	}

	if b.tokens <= 0 {
		return false, 0, rl.config.Window - now.Sub(b.lastReset)
	}

	b.tokens--
	return true, b.tokens, rl.config.Window - now.Sub(b.lastReset)
}

// cleanup evicts idle keys so the map does not grow without bound.
func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(rl.config.Window * 2)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for key, b := range rl.buckets {
			if now.Sub(b.lastReset) > rl.config.Window*2 {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit rejects requests over the per-key quota with 429, and exposes
// X-RateLimit-* headers either way.
func RateLimit(config *RateLimitConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultRateLimitConfig()
	}

	limiter := newRateLimiter(config)

	return func(c *gin.Context) {
		key := config.KeyFunc(c)
		allowed, remaining, retryAfter := limiter.allow(key)

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(retryAfter).Unix(), 10))

		if !allowed {
			retrySeconds := int(retryAfter.Seconds())
			if retrySeconds < 1 {
				retrySeconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(retrySeconds))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"detail": "too many requests, please try again later",
			})
			return
		}

		c.Next()
	}
}

// TransactionRateLimit is the stricter limiter in front of money-movement
// endpoints, keyed by user when authenticated.
func TransactionRateLimit() gin.HandlerFunc {
	return RateLimit(&RateLimitConfig{
		Limit:  30,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			if userID := GetAuthUserID(c); userID != uuid.Nil {
				return "user:" + userID.String()
			}
			return "ip:" + c.ClientIP()
		},
	})
}
