package auth

import (
	"sync"
	"time"
)

/*
RateLimiter is a token bucket.  The bucket starts full and refills
continuously at rate/interval.
*/
type RateLimiter struct {
	mu       sync.Mutex
	rate     float64 // tokens per second
	capacity int64
	tokens   float64
	last     time.Time
}

// NewRateLimiter allows rate operations per interval.
func NewRateLimiter(rate int64, interval time.Duration) *RateLimiter {
	if rate <= 0 || interval <= 0 {
		panic("rate and interval must be positive")
	}

	return &RateLimiter{
		rate:     float64(rate) / interval.Seconds(),
		capacity: rate,
		tokens:   float64(rate),
		last:     time.Now(),
	}
}

// Allow consumes one token if available.
func (limiter *RateLimiter) Allow() bool {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(limiter.last).Seconds()
	limiter.last = now

	limiter.tokens = min(float64(limiter.capacity), limiter.tokens+elapsed*limiter.rate)

	if limiter.tokens < 1.0 {
		return false
	}

	limiter.tokens--
	return true
}

// WaitTime reports how long until the next token becomes available.
func (limiter *RateLimiter) WaitTime() time.Duration {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	if limiter.tokens >= 1.0 {
		return 0
	}

	seconds := (1.0 - limiter.tokens) / limiter.rate
	return time.Duration(seconds * float64(time.Second))
}

/*
TryUntil keeps trying to take a token, sleeping between attempts, until
the deadline passes.
*/
func (limiter *RateLimiter) TryUntil(deadline time.Time) bool {
	for {
		if limiter.Allow() {
			return true
		}

		wait := limiter.WaitTime()
		if time.Now().Add(wait).After(deadline) {
			return false
		}

		time.Sleep(wait)
	}
}

// Reset refills the bucket.
func (limiter *RateLimiter) Reset() {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	limiter.tokens = float64(limiter.capacity)
	limiter.last = time.Now()
}
