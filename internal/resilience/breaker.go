package resilience

import (
	"errors"
	"sync"
	"time"
)

// CircuitState enumerates the breaker states.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

// String renders the state for status events.
func (s CircuitState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// ErrCircuitOpen is returned instead of running the operation while the
// breaker is open. Callers must treat it as a skip, never as an operation
// failure worth a retry attempt.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerConfig tunes one breaker instance. Zero fields fall back to defaults.
type BreakerConfig struct {
	FailureThreshold int           // consecutive failures before opening
	SuccessThreshold int           // consecutive half-open successes before closing
	ProbeBudget      int           // concurrent probe calls allowed while half-open
	OpenTimeout      time.Duration // cooldown before half-open probing
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 2
	}
	if c.ProbeBudget <= 0 {
		c.ProbeBudget = 1
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 60 * time.Second
	}
	return c
}

// CircuitBreaker is a per-source fail-fast gate. All state lives behind one
// mutex; the guarded operation itself runs outside the lock.
type CircuitBreaker struct {
	mu sync.Mutex

	cfg BreakerConfig

	state       CircuitState
	failures    int
	successes   int
	probes      int
	lastChange  time.Time
	totalCalls  int
	totalErrors int
}

// NewCircuitBreaker builds a closed breaker with defaults applied.
func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		cfg:        cfg.withDefaults(),
		state:      StateClosed,
		lastChange: time.Now(),
	}
}

// Execute runs fn under breaker protection. While open and inside the
// cooldown window it returns ErrCircuitOpen without touching the network.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.beforeCall(); err != nil {
		return err
	}

	err := fn()
	cb.afterCall(err)
	return err
}

func (cb *CircuitBreaker) beforeCall() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if time.Since(cb.lastChange) < cb.cfg.OpenTimeout {
			return ErrCircuitOpen
		}
		cb.transition(StateHalfOpen)
		fallthrough
	case StateHalfOpen:
		if cb.probes >= cb.cfg.ProbeBudget {
			return ErrCircuitOpen
		}
		cb.probes++
	}

	cb.totalCalls++
	return nil
}

func (cb *CircuitBreaker) afterCall(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen && cb.probes > 0 {
		cb.probes--
	}

	if err != nil {
		cb.totalErrors++
		cb.onFailure()
		return
	}
	cb.onSuccess()
}

// mutex held by caller
func (cb *CircuitBreaker) onFailure() {
	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.transition(StateOpen)
		}
	case StateHalfOpen:
		// A failed probe restarts the cooldown clock.
		cb.transition(StateOpen)
	}
}

// mutex held by caller
func (cb *CircuitBreaker) onSuccess() {
	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.transition(StateClosed)
		}
	}
}

// mutex held by caller
func (cb *CircuitBreaker) transition(next CircuitState) {
	cb.state = next
	cb.lastChange = time.Now()
	cb.failures = 0
	cb.successes = 0
	cb.probes = 0
}

// State reports the current state without advancing the machine.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Config exposes the effective (default-applied) configuration.
func (cb *CircuitBreaker) Config() BreakerConfig {
	return cb.cfg
}

// Stats returns lifetime call and error totals.
func (cb *CircuitBreaker) Stats() (calls, failures int) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.totalCalls, cb.totalErrors
}
