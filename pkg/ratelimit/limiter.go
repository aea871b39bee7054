// Package ratelimit implements a token-bucket rate limiter (spec §5):
// steady refill, blocking acquire, deadline-aware. No third-party rate
// limiter appears anywhere in the corpus, so this is hand-rolled.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a token bucket refilled at ratePerSecond tokens/s, capped
// at burst tokens. The zero value is not usable; construct with New.
type Limiter struct {
	mu         sync.Mutex
	rate       float64
	burst      float64
	tokens     float64
	lastRefill time.Time
	now        func() time.Time
}

// New builds a limiter refilling at ratePerSecond tokens/s, with an
// initial and maximum bucket size of burst tokens.
func New(ratePerSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		rate:       ratePerSecond,
		burst:      float64(burst),
		tokens:     float64(burst),
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

// Acquire blocks until a token is available or ctx is done, whichever
// comes first. Purely local operations never call Acquire (spec §5:
// the limiter applies only to calls reaching external services).
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		wait, ok := l.tryAcquire()
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

// tryAcquire attempts to take one token. On success it returns (0,
// true). On failure it returns the duration to wait before the next
// token will be available.
func (l *Limiter) tryAcquire() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refillLocked()

	if l.tokens >= 1.0 {
		l.tokens--
		return 0, true
	}

	deficit := 1.0 - l.tokens
	wait := time.Duration(deficit / l.rate * float64(time.Second))
	if wait < time.Millisecond {
		wait = time.Millisecond
	}
	return wait, false
}

func (l *Limiter) refillLocked() {
	now := l.now()
	elapsed := now.Sub(l.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	l.tokens += elapsed * l.rate
	if l.tokens > l.burst {
		l.tokens = l.burst
	}
	l.lastRefill = now
}
