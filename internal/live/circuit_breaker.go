package live

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// BreakerState is the state of a client's circuit breaker.
type BreakerState int

const (
	// StateClosed allows writes through.
	StateClosed BreakerState = iota
	// StateOpen rejects writes immediately.
	StateOpen
	// StateHalfOpen allows a limited number of probe writes to test recovery.
	StateHalfOpen
)

// CircuitBreaker guards one websocket client's send path. A slow or stalled
// subscriber otherwise backs up the hub's broadcast loop one write deadline
// at a time; tripping the breaker after repeated write failures lets the hub
// stop trying that client until resetTimeout has passed, instead of paying a
// write-deadline timeout on every single snapshot.
type CircuitBreaker struct {
	mu           sync.RWMutex
	state        BreakerState
	failureCount int
	successCount int
	nextRetry    time.Time

	maxFailures   int
	resetTimeout  time.Duration
	halfOpenLimit int
}

// NewCircuitBreaker builds a circuit breaker with the given thresholds.
func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration, halfOpenLimit int) *CircuitBreaker {
	return &CircuitBreaker{
		state:         StateClosed,
		maxFailures:   maxFailures,
		resetTimeout:  resetTimeout,
		halfOpenLimit: halfOpenLimit,
	}
}

// Execute runs write under breaker protection.
func (cb *CircuitBreaker) Execute(_ context.Context, write func() error) error {
	if !cb.allowRequest() {
		return fmt.Errorf("circuit breaker open: client write rejected")
	}

	if err := write(); err != nil {
		cb.recordFailure()
		return err
	}

	cb.recordSuccess()
	return nil
}

func (cb *CircuitBreaker) allowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Now().After(cb.nextRetry) {
			cb.state = StateHalfOpen
			cb.successCount = 0
			return true
		}
		return false
	case StateHalfOpen:
		return cb.successCount < cb.halfOpenLimit
	default:
		return false
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount = 0

	if cb.state == StateHalfOpen {
		cb.successCount++
		if cb.successCount >= cb.halfOpenLimit {
			cb.state = StateClosed
		}
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++

	if cb.state == StateHalfOpen {
		cb.state = StateOpen
		cb.nextRetry = time.Now().Add(cb.resetTimeout)
	} else if cb.failureCount >= cb.maxFailures {
		cb.state = StateOpen
		cb.nextRetry = time.Now().Add(cb.resetTimeout)
	}
}

// State reports the breaker's current state.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}
