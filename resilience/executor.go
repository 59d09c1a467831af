package resilience

import (
	"context"
	"errors"
	"time"
)

// ExecutorConfig configures an Executor.
type ExecutorConfig struct {
	// Breaker guards the downstream dependency. When the breaker refuses a
	// call the Executor fails fast without consuming the retry budget.
	Breaker *CircuitBreaker

	// Retry is the retry policy applied to failed attempts.
	Retry RetryPolicy

	// Deadline is the wall-clock budget for the whole execution, covering
	// every attempt and the sleeps between them. Zero means no deadline.
	Deadline time.Duration
}

// Executor wraps downstream calls with circuit breaking, bounded retries,
// backoff with jitter, and an overall deadline.
//
// One Executor belongs to one repository; concurrent requests on the same
// repository serialize through the shared breaker state but are otherwise
// not serialized against each other.
type Executor struct {
	config ExecutorConfig
}

// NewExecutor creates a new executor.
func NewExecutor(config ExecutorConfig) *Executor {
	config.Retry = NewRetryPolicy(config.Retry)
	return &Executor{config: config}
}

// Breaker returns the executor's circuit breaker, or nil.
func (e *Executor) Breaker() *CircuitBreaker {
	return e.config.Breaker
}

// Execute runs the operation through the breaker and retry policy.
//
// Each attempt receives its own child context carrying the caller's
// cancellation and the remaining deadline. Non-retryable errors and fired
// cancellations surface immediately; an exhausted retry budget surfaces as a
// RepositoryError wrapping the last cause.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	if e.config.Breaker != nil && !e.config.Breaker.CanExecute() {
		return ErrCircuitOpen
	}

	var deadline time.Time
	if e.config.Deadline > 0 {
		deadline = time.Now().Add(e.config.Deadline)
	}

	var lastErr error
	maxAttempts := e.config.Retry.MaxRetries + 1

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return ErrDeadlineExceeded
		}

		err := e.attempt(ctx, deadline, op)
		if err == nil {
			if e.config.Breaker != nil {
				e.config.Breaker.OnSuccess()
			}
			return nil
		}

		if e.config.Breaker != nil {
			e.config.Breaker.OnFailure()
		}
		lastErr = err

		// The caller cancelled or the budget ran out mid-attempt; don't
		// keep retrying on their behalf.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !deadline.IsZero() && errors.Is(err, context.DeadlineExceeded) {
			return ErrDeadlineExceeded
		}

		if !e.config.Retry.RetryIf(err) {
			return err
		}
		if attempt >= maxAttempts {
			break
		}

		delay := e.config.Retry.Delay(attempt)
		if !deadline.IsZero() && time.Now().Add(delay).After(deadline) {
			return ErrDeadlineExceeded
		}
		if e.config.Retry.OnRetry != nil {
			e.config.Retry.OnRetry(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return &RepositoryError{Attempts: maxAttempts, Err: lastErr}
}

func (e *Executor) attempt(ctx context.Context, deadline time.Time, op func(context.Context) error) error {
	var cancel context.CancelFunc
	if !deadline.IsZero() {
		ctx, cancel = context.WithDeadline(ctx, deadline)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	return op(ctx)
}

// TxRunner runs a function inside a transaction, committing on nil and
// rolling back on error. Persistence adapters implement this over their ORM.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ExecuteTx runs the transaction-scoped callback through the same policy as
// Execute. The whole transaction is one retryable unit: a retry re-runs the
// transaction from the beginning, never a sub-step of it.
func (e *Executor) ExecuteTx(ctx context.Context, runner TxRunner, fn func(ctx context.Context) error) error {
	return e.Execute(ctx, func(ctx context.Context) error {
		return runner.RunInTx(ctx, fn)
	})
}
