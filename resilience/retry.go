package resilience

import (
	"context"
	"math/rand/v2"
	"time"
)

// NoRetries disables retrying: the operation runs exactly once.
const NoRetries = -1

// RetryPolicy configures retry behavior.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the initial attempt.
	// Zero means the default; use NoRetries for a single attempt.
	// Default: 2
	MaxRetries int

	// BaseDelay is the delay before the first retry.
	// Default: 50ms
	BaseDelay time.Duration

	// MaxDelay caps the computed delay between retries.
	// Default: 2s
	MaxDelay time.Duration

	// RetryIf determines whether an error should trigger a retry.
	// Default: all non-nil errors trigger retry.
	RetryIf func(err error) bool

	// OnRetry is called before each retry attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// NewRetryPolicy creates a retry policy with defaults applied.
func NewRetryPolicy(policy RetryPolicy) RetryPolicy {
	switch {
	case policy.MaxRetries < 0:
		policy.MaxRetries = 0
	case policy.MaxRetries == 0:
		policy.MaxRetries = 2
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 50 * time.Millisecond
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = 2 * time.Second
	}
	if policy.RetryIf == nil {
		policy.RetryIf = func(err error) bool { return err != nil }
	}
	return policy
}

// Delay computes the backoff delay before the given retry attempt (1-based).
//
// The base delay doubles per attempt, capped at MaxDelay, plus a uniform
// random jitter of up to the same magnitude to avoid synchronized retry
// storms.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := p.BaseDelay << (attempt - 1)
	if delay > p.MaxDelay || delay <= 0 {
		delay = p.MaxDelay
	}

	// #nosec G404 -- jitter is non-cryptographic timing variance.
	jitter := time.Duration(rand.Int64N(int64(delay) + 1))
	return delay + jitter
}

// Execute runs the operation with retry alone (no breaker, no deadline).
// Most callers should use Executor instead.
func (p RetryPolicy) Execute(ctx context.Context, op func(context.Context) error) error {
	p = NewRetryPolicy(p)

	var lastErr error
	for attempt := 1; attempt <= p.MaxRetries+1; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !p.RetryIf(err) {
			return err
		}
		if attempt > p.MaxRetries {
			break
		}

		delay := p.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return &RepositoryError{Attempts: p.MaxRetries + 1, Err: lastErr}
}
