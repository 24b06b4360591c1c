package fitness

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER
// ══════════════════════════════════════════════════════════════════════════════

// RateLimiter is a token-bucket limiter guarding calls to the fitness
// provider API. The provider enforces a per-application quota; staying
// under it locally is cheaper than handling 429 responses.
type RateLimiter struct {
	mu sync.Mutex

	maxTokens   float64
	tokens      float64
	refillRate  float64 // tokens per second
	lastRefill  time.Time
	lastRequest time.Time
	minInterval time.Duration
	waitTimeout time.Duration
}

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// RequestsPerMinute is the sustained request budget.
	RequestsPerMinute int

	// Burst is how many requests may fire back to back before the
	// sustained rate applies.
	Burst int

	// MinInterval is the minimum spacing between two requests.
	MinInterval time.Duration

	// WaitTimeout bounds how long Allow blocks before giving up.
	WaitTimeout time.Duration
}

// DefaultRateLimiterConfig returns a configuration matching the
// provider's published application quota with headroom.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerMinute: 100,
		Burst:             10,
		MinInterval:       100 * time.Millisecond,
		WaitTimeout:       30 * time.Second,
	}
}

// NewRateLimiter creates a rate limiter from the given config. Zero or
// negative values fall back to defaults.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	def := DefaultRateLimiterConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.Burst <= 0 {
		config.Burst = def.Burst
	}
	if config.MinInterval <= 0 {
		config.MinInterval = def.MinInterval
	}
	if config.WaitTimeout <= 0 {
		config.WaitTimeout = def.WaitTimeout
	}

	now := time.Now()
	return &RateLimiter{
		maxTokens:   float64(config.Burst),
		tokens:      float64(config.Burst),
		refillRate:  float64(config.RequestsPerMinute) / 60.0,
		lastRefill:  now,
		minInterval: config.MinInterval,
		waitTimeout: config.WaitTimeout,
	}
}

// RateLimitError is returned when the local budget is exhausted.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("fitness: %s (retry after %s)", e.Message, e.RetryAfter)
	}
	return "fitness: " + e.Message
}

// Is allows errors.Is matching against any RateLimitError.
func (e *RateLimitError) Is(target error) bool {
	_, ok := target.(*RateLimitError)
	return ok
}

// ErrRateLimitExceeded is returned when waiting for the budget times out.
var ErrRateLimitExceeded = &RateLimitError{Message: "rate limit exceeded"}

// Allow blocks until a request may proceed, the wait timeout elapses,
// or the context is cancelled.
func (rl *RateLimiter) Allow(ctx context.Context) error {
	deadline := time.Now().Add(rl.waitTimeout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		waitTime, ok := rl.tryAcquire()
		if ok {
			return nil
		}

		if time.Now().Add(waitTime).After(deadline) {
			return &RateLimitError{
				RetryAfter: waitTime,
				Message:    "rate limit exceeded",
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}
}

// TryAllow reports whether a request may proceed right now, without
// blocking.
func (rl *RateLimiter) TryAllow() bool {
	_, ok := rl.tryAcquire()
	return ok
}

// tryAcquire attempts to consume a token. On failure it returns how
// long to wait before retrying.
func (rl *RateLimiter) tryAcquire() (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillTokens()

	if since := time.Since(rl.lastRequest); since < rl.minInterval {
		return rl.minInterval - since, false
	}

	if rl.tokens < 1.0 {
		needed := 1.0 - rl.tokens
		return time.Duration(needed / rl.refillRate * float64(time.Second)), false
	}

	rl.tokens--
	rl.lastRequest = time.Now()
	return 0, true
}

// refillTokens adds tokens for the time elapsed since the last refill.
// Must be called with the lock held.
func (rl *RateLimiter) refillTokens() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}

	rl.tokens += elapsed * rl.refillRate
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = now
}
