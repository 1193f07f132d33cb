package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FeedHarvester/internal/ports"
	"FeedHarvester/internal/resilience"
)

// Mode selects the user-facing wording; control flow is identical either way.
type Mode int

const (
	ModeBatch Mode = iota
	ModeSingle
)

// Config tunes one executor. Zero fields fall back to defaults.
type Config struct {
	MaxAttempts int           // bounded attempt count per logical operation
	Backoff     time.Duration // base inter-attempt sleep, doubled per attempt
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 2
	}
	if c.Backoff <= 0 {
		c.Backoff = 2 * time.Second
	}
	return c
}

// Outcome is the terminal result of one wrapped operation. Failures degrade
// to a skip here; they never propagate as errors that could abort siblings.
type Outcome struct {
	Attempts    int
	Err         error
	CircuitOpen bool
}

// Succeeded reports whether the wrapped operation completed.
func (o Outcome) Succeeded() bool { return o.Err == nil }

// Executor wraps one logical operation with bounded attempts and
// skip-not-abort semantics.
type Executor struct {
	cfg  Config
	mode Mode
	sink ports.StatusSink
}

// NewExecutor builds an executor reporting through sink (may be nil).
func NewExecutor(cfg Config, mode Mode, sink ports.StatusSink) *Executor {
	return &Executor{cfg: cfg.withDefaults(), mode: mode, sink: sink}
}

// Run executes op up to MaxAttempts times. The status update fires before
// any blocking wait so the user never stares at a silent stall. A circuit-open
// rejection is terminal immediately and is never conflated with an operation
// failure; retryable failures re-enter op, which re-passes the breaker and
// limiter gates on its own.
func (e *Executor) Run(ctx context.Context, sourceID string, op func(ctx context.Context) error) Outcome {
	var lastErr error

	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		if e.sink != nil {
			e.sink.Connecting(sourceID, attempt)
		}

		err := op(ctx)
		if err == nil {
			return Outcome{Attempts: attempt}
		}
		lastErr = err

		if errors.Is(err, resilience.ErrCircuitOpen) {
			return e.skip(sourceID, Outcome{Attempts: attempt, Err: err, CircuitOpen: true})
		}

		if !IsTransient(err) || attempt == e.cfg.MaxAttempts {
			return e.skip(sourceID, Outcome{Attempts: attempt, Err: err})
		}

		if err := e.sleep(ctx, attempt); err != nil {
			return e.skip(sourceID, Outcome{Attempts: attempt, Err: lastErr})
		}
	}

	return e.skip(sourceID, Outcome{Attempts: e.cfg.MaxAttempts, Err: lastErr})
}

func (e *Executor) sleep(ctx context.Context, attempt int) error {
	backoff := e.cfg.Backoff * time.Duration(1<<(attempt-1))
	timer := time.NewTimer(backoff)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (e *Executor) skip(sourceID string, out Outcome) Outcome {
	if e.sink != nil {
		e.sink.SourceSkipped(sourceID, out.Attempts, e.reason(out))
	}
	return out
}

func (e *Executor) reason(out Outcome) string {
	if out.CircuitOpen {
		return "circuit open, cooling down"
	}
	if e.mode == ModeSingle {
		return fmt.Sprintf("giving up after %d attempts: %v", out.Attempts, out.Err)
	}
	return fmt.Sprintf("skipped after %d attempts, continuing with remaining sources: %v", out.Attempts, out.Err)
}
