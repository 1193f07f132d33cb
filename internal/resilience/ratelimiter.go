package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrWouldBlock is reported by TryAcquire when no token is available.
var ErrWouldBlock = errors.New("rate limiter: no token available")

// LimiterConfig tunes one token bucket. Zero fields fall back to defaults.
type LimiterConfig struct {
	Rate  float64 // tokens added per second
	Burst int     // bucket capacity
}

func (c LimiterConfig) withDefaults() LimiterConfig {
	if c.Rate <= 0 {
		c.Rate = 2
	}
	if c.Burst <= 0 {
		c.Burst = 5
	}
	return c
}

// RateLimiter is a per-source token bucket. Refill is a pure function of
// elapsed time; refill and consumption happen in one critical section so two
// concurrent callers can never spend the same pre-refill balance twice.
type RateLimiter struct {
	mu sync.Mutex

	cfg        LimiterConfig
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter builds a full bucket.
func NewRateLimiter(cfg LimiterConfig) *RateLimiter {
	cfg = cfg.withDefaults()
	return &RateLimiter{
		cfg:        cfg,
		tokens:     float64(cfg.Burst),
		lastRefill: time.Now(),
	}
}

// mutex held by caller
func (rl *RateLimiter) refill(now time.Time) {
	elapsed := now.Sub(rl.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	rl.tokens = min(float64(rl.cfg.Burst), rl.tokens+elapsed*rl.cfg.Rate)
	rl.lastRefill = now
}

// take consumes one token if available, otherwise returns how long until
// the next token is due.
func (rl *RateLimiter) take() (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.refill(now)

	if rl.tokens >= 1 {
		rl.tokens--
		return 0, true
	}

	deficit := 1 - rl.tokens
	return time.Duration(deficit / rl.cfg.Rate * float64(time.Second)), false
}

// TryAcquire consumes a token without waiting; ErrWouldBlock when empty.
func (rl *RateLimiter) TryAcquire() error {
	if _, ok := rl.take(); !ok {
		return ErrWouldBlock
	}
	return nil
}

// Acquire blocks until a token is consumed or ctx ends.
func (rl *RateLimiter) Acquire(ctx context.Context) error {
	for {
		wait, ok := rl.take()
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Tokens reports the current balance after a refill, for tests and stats.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill(time.Now())
	return rl.tokens
}
