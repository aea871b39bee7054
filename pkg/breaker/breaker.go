// Package breaker implements the three-state circuit breaker (Closed,
// Open, HalfOpen) that guards the LLM analysis call (spec §4.F). No
// third-party circuit-breaker library is present anywhere in the
// retrieval pack (confirmed by corpus-wide search across all seven
// example repos and other_examples/), so this is hand-rolled on the
// standard library by necessity.
package breaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Call when the breaker is Open (or HalfOpen with
// its probe budget exhausted) without invoking the protected function.
var ErrOpen = errors.New("breaker: circuit open")

// State is one of the three breaker states.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Config controls the breaker's thresholds, matching spec §4.F's table.
type Config struct {
	FailureThreshold int           // default 3
	Timeout          time.Duration // default 30s, Open -> HalfOpen delay
	HalfOpenMaxCalls int           // default 2, probes permitted in HalfOpen
}

// DefaultConfig returns spec §4.F's documented defaults.
func DefaultConfig() Config {
	return Config{FailureThreshold: 3, Timeout: 30 * time.Second, HalfOpenMaxCalls: 2}
}

// Breaker is a single protected call-site's state machine. One Breaker
// instance is shared by every worker calling through it; all transitions
// are mutually exclusive under mu, matching the teacher's per-resource
// mutex discipline (one lock per guarded object, never a package-level
// global).
type Breaker struct {
	mu sync.Mutex

	cfg Config

	state            State
	consecutiveFails int
	openedAt         time.Time
	halfOpenInFlight int
	halfOpenSuccess  int
}

// New constructs a breaker in the Closed state.
func New(cfg Config) *Breaker {
	return &Breaker{cfg: cfg, state: Closed}
}

// State reports the current state, guarded.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allow checks whether a call may proceed, transitioning Open->HalfOpen
// when the timeout has elapsed, and reserving one of HalfOpen's limited
// probe slots. Call Report after the call completes (or was cancelled) to
// record its outcome.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return nil
	case Open:
		if time.Since(b.openedAt) >= b.cfg.Timeout {
			b.state = HalfOpen
			b.halfOpenInFlight = 0
			b.halfOpenSuccess = 0
		} else {
			return ErrOpen
		}
	}

	if b.state == HalfOpen {
		if b.halfOpenInFlight >= b.cfg.HalfOpenMaxCalls {
			return ErrOpen
		}
		b.halfOpenInFlight++
		return nil
	}
	return nil
}

// Outcome is what Report records for a just-completed call.
type Outcome int

const (
	Success Outcome = iota
	Failure
	Cancelled
)

// Report records the outcome of a call previously admitted by Allow.
// Cancellation is never counted as a failure, per spec §4.F: the breaker
// remains in whatever state it was in.
func (b *Breaker) Report(outcome Outcome) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if outcome == Cancelled {
		if b.state == HalfOpen && b.halfOpenInFlight > 0 {
			b.halfOpenInFlight--
		}
		return
	}

	switch b.state {
	case Closed:
		if outcome == Success {
			b.consecutiveFails = 0
			return
		}
		b.consecutiveFails++
		if b.consecutiveFails >= b.cfg.FailureThreshold {
			b.tripOpen()
		}
	case HalfOpen:
		b.halfOpenInFlight--
		if outcome == Failure {
			b.tripOpen()
			return
		}
		b.halfOpenSuccess++
		if b.halfOpenSuccess >= b.cfg.HalfOpenMaxCalls {
			b.state = Closed
			b.consecutiveFails = 0
		}
	case Open:
		// A report arriving after the breaker already reopened (e.g. a
		// slow call that started before a prior probe failure); ignore.
	}
}

// tripOpen transitions to Open and records the time, resetting counters.
// Caller must hold mu.
func (b *Breaker) tripOpen() {
	b.state = Open
	b.openedAt = time.Now()
	b.consecutiveFails = 0
	b.halfOpenInFlight = 0
	b.halfOpenSuccess = 0
}

// Call runs fn through the breaker: Allow, invoke, Report. If ctx is
// cancelled while fn runs, the outcome is reported as Cancelled rather
// than Failure. fn's own error (other than context cancellation) counts
// as Failure.
func (b *Breaker) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.Allow(); err != nil {
		return err
	}

	err := fn(ctx)

	switch {
	case err == nil:
		b.Report(Success)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		b.Report(Cancelled)
	default:
		b.Report(Failure)
	}
	return err
}
