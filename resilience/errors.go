package resilience

import "errors"

// Sentinel errors for resilience operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker refuses a call.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrDeadlineExceeded is returned when an operation's wall-clock budget
	// is exhausted before it completed.
	ErrDeadlineExceeded = errors.New("resilience: deadline exceeded")
)

// RepositoryError wraps the final error after the retry budget is exhausted.
type RepositoryError struct {
	// Attempts is the number of attempts performed.
	Attempts int

	// Err is the error from the last attempt.
	Err error
}

// Error implements the error interface.
func (e *RepositoryError) Error() string {
	return "resilience: retries exhausted: " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *RepositoryError) Unwrap() error {
	return e.Err
}
