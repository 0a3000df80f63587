// Package circuitbreaker stops calling a failing dependency for a while
// after repeated consecutive failures.
package circuitbreaker

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Allow while the circuit is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the state of the circuit breaker.
type State int

const (
	// StateClosed allows calls.
	StateClosed State = iota
	// StateOpen blocks calls until the open timeout elapses.
	StateOpen
	// StateHalfOpen allows a single trial call.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

const (
	defaultFailureThreshold = 5
	defaultOpenTimeout      = 60 * time.Second
)

// Config configures a circuit breaker.
type Config struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold int
	// OpenTimeout is how long the circuit stays open before a trial call is allowed.
	OpenTimeout time.Duration
	// OnStateChange is called with the lock held; it must not call back into the breaker.
	OnStateChange func(from, to State)
	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Breaker is a consecutive-failure circuit breaker. A single successful
// trial call in the half-open state closes it.
type Breaker struct {
	mu       sync.Mutex
	cfg      Config
	state    State
	failures int
	openedAt time.Time
}

// New creates a closed breaker.
func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = defaultFailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaultOpenTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Breaker{cfg: cfg, state: StateClosed}
}

// Allow reports whether a call may proceed. An open circuit whose timeout
// has elapsed moves to half-open and allows the call.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return nil
	}

	elapsed := b.cfg.Now().Sub(b.openedAt)
	if elapsed < b.cfg.OpenTimeout {
		return fmt.Errorf("%w: retry in %v", ErrCircuitOpen, (b.cfg.OpenTimeout - elapsed).Round(time.Second))
	}

	b.transitionTo(StateHalfOpen)
	return nil
}

// Record reports the outcome of an allowed call.
func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		b.failures = 0
		if b.state == StateHalfOpen {
			b.transitionTo(StateClosed)
		}
		return
	}

	b.failures++
	switch b.state {
	case StateHalfOpen:
		b.open()
	case StateClosed:
		if b.failures >= b.cfg.FailureThreshold {
			b.open()
		}
	case StateOpen:
	}
}

// Execute runs fn when the circuit allows it and records the result.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.Allow(); err != nil {
		return err
	}

	err := fn()
	b.Record(err == nil)
	return err
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) open() {
	b.openedAt = b.cfg.Now()
	b.failures = 0
	b.transitionTo(StateOpen)
}

func (b *Breaker) transitionTo(next State) {
	if b.state == next {
		return
	}

	prev := b.state
	b.state = next

	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(prev, next)
	}
}
