package middleware

import (
	"context"
	"sync"
	"time"

	"youth-sports-gamification/logger"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// KeyedRateLimiter keeps one token bucket per caller.
type KeyedRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*rateLimiterEntry
	r       rate.Limit
	burst   int
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyedRateLimiter allows r requests per second with the given burst.
// Idle buckets are dropped until ctx ends.
func NewKeyedRateLimiter(ctx context.Context, r rate.Limit, burst int) *KeyedRateLimiter {
	rl := &KeyedRateLimiter{
		entries: make(map[string]*rateLimiterEntry),
		r:       r,
		burst:   burst,
	}
	go rl.cleanup(ctx)
	return rl
}

func (rl *KeyedRateLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Prune(3 * time.Minute)
		}
	}
}

// Prune drops buckets unused for longer than idle.
func (rl *KeyedRateLimiter) Prune(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	removed := 0
	for key, entry := range rl.entries {
		if time.Since(entry.lastSeen) > idle {
			delete(rl.entries, key)
			removed++
		}
	}
	return removed
}

func (rl *KeyedRateLimiter) GetLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.entries[key]
	if !exists {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(rl.r, rl.burst)}
		rl.entries[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// RateLimitMiddleware throttles per user, falling back to client IP.
func RateLimitMiddleware(limiter *KeyedRateLimiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := UserID(c)
		if key == "" {
			key = c.Get("X-User-ID")
		}
		if key == "" {
			key = c.IP()
		}
		if !limiter.GetLimiter(key).Allow() {
			logger.Warn().Str("key", key).Str("path", c.Path()).Msg("Rate limit exceeded")
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "Too many requests",
				"message": "Rate limit exceeded. Please slow down.",
			})
		}
		return c.Next()
	}
}
