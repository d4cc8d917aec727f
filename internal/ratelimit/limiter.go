package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter paces session creation separately for every host. The demo app
// uses the same limiter keyed by client address.
type Limiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
}

// NewLimiter creates a new rate limiter
// sessionsPerMinute: sustained session starts allowed per minute per host (e.g., 30)
// burst: starts allowed back to back before pacing kicks in (e.g., 5)
func NewLimiter(sessionsPerMinute int, burst int) *Limiter {
	r := rate.Limit(float64(sessionsPerMinute) / 60.0)
	if sessionsPerMinute <= 0 {
		r = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}

	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    burst,
	}
}

// GetLimiter returns the rate limiter for a specific host
func (l *Limiter) GetLimiter(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.limiters[host]
	if !exists {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[host] = limiter
	}

	return limiter
}

// Allow checks if a request is allowed for the given key without waiting
func (l *Limiter) Allow(key string) bool {
	return l.GetLimiter(key).Allow()
}

// Wait blocks until the host may start another session or ctx is done
func (l *Limiter) Wait(ctx context.Context, host string) error {
	return l.GetLimiter(host).Wait(ctx)
}

// Tokens returns the current number of available tokens for a host
func (l *Limiter) Tokens(host string) float64 {
	return l.GetLimiter(host).Tokens()
}
