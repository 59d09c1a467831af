// Package resilience provides failure handling for persistence calls.
//
// It implements two composable patterns:
//
//   - Circuit Breaker: stops calling a failing dependency for a cooldown
//     period after repeated failures. One breaker per repository instance,
//     process-local.
//
//   - Retrying Executor: wraps an operation with bounded retries, exponential
//     backoff with jitter, an overall wall-clock deadline, and cancellation
//     propagation, consulting the breaker before the first attempt.
//
// # Usage
//
//	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	    FailureThreshold: 5,
//	    ResetTimeout:     10 * time.Second,
//	})
//
//	exec := resilience.NewExecutor(resilience.ExecutorConfig{
//	    Breaker: cb,
//	    Retry: resilience.RetryPolicy{
//	        MaxRetries: 2,
//	        BaseDelay:  50 * time.Millisecond,
//	        RetryIf:    fault.IsRetryable,
//	    },
//	    Deadline: 3 * time.Second,
//	})
//
//	err := exec.Execute(ctx, func(ctx context.Context) error {
//	    return repo.FindCourse(ctx, id)
//	})
//
// Retry classification is an allow-list: only transient infrastructure and
// lock-contention faults are retried (see the fault package). Deterministic
// business errors fail immediately.
package resilience
