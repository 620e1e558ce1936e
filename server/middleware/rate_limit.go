package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	aierrors "github.com/hrygo/lexagent/server/internal/errors"
)

// RateLimitConfig configures per-key token buckets.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate; 0 disables limiting.
	RequestsPerSecond float64
	Burst             int
	// EntryTTL drops limiters for keys idle longer than this.
	EntryTTL time.Duration
}

// DefaultRateLimitConfig allows 10 requests per second with a burst of 20.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{RequestsPerSecond: 10, Burst: 20, EntryTTL: 15 * time.Minute}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter provides rate limiting functionality.
type RateLimiter struct {
	mu          sync.Mutex
	cfg         RateLimitConfig
	limits      map[string]*limiterEntry
	lastCleanup time.Time
	now         func() time.Time
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.EntryTTL <= 0 {
		cfg.EntryTTL = 15 * time.Minute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &RateLimiter{
		cfg:         cfg,
		limits:      make(map[string]*limiterEntry),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

// getLimiter gets or creates a limiter for the given key.
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastCleanup) >= rl.cfg.EntryTTL {
		for k, e := range rl.limits {
			if now.Sub(e.lastSeen) > rl.cfg.EntryTTL {
				delete(rl.limits, k)
			}
		}
		rl.lastCleanup = now
	}

	if e, ok := rl.limits[key]; ok {
		e.lastSeen = now
		return e.limiter
	}
	limiter := rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst)
	rl.limits[key] = &limiterEntry{limiter: limiter, lastSeen: now}
	return limiter
}

// Allow checks if a request is allowed for the given key.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Wait waits for a request to be allowed.
// Returns error if the context is cancelled or rate limit exceeded.
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	return rl.getLimiter(key).Wait(ctx)
}

// Len reports the number of tracked keys.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limits)
}

// Middleware rejects requests over the per client IP rate with 429 and a
// {"detail"} body.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if rl.cfg.RequestsPerSecond <= 0 {
			return next
		}
		return func(c echo.Context) error {
			if !rl.Allow("ip:" + c.RealIP()) {
				err := aierrors.RateLimitExceeded("rate limit exceeded")
				return c.JSON(err.HTTPStatus(), map[string]string{"detail": err.Detail()})
			}
			return next(c)
		}
	}
}
