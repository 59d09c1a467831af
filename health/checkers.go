package health

import (
	"context"
	"fmt"

	"github.com/campuskit/campuskit/kv"
	"github.com/campuskit/campuskit/resilience"
)

// StoreChecker pings the shared key-value store.
type StoreChecker struct {
	name  string
	store kv.Store
}

// NewStoreChecker creates a checker for the kv store.
func NewStoreChecker(name string, store kv.Store) *StoreChecker {
	if name == "" {
		name = "kv"
	}
	return &StoreChecker{name: name, store: store}
}

// Name returns the checker name.
func (c *StoreChecker) Name() string {
	return c.name
}

// Check pings the store.
func (c *StoreChecker) Check(ctx context.Context) Result {
	if err := c.store.Ping(ctx); err != nil {
		return Unhealthy("store unreachable", err)
	}
	return Healthy("store reachable")
}

// BreakerChecker reports the state of a repository circuit breaker. An open
// or half-open breaker degrades readiness without failing it: the process is
// serving, one downstream is not.
type BreakerChecker struct {
	name    string
	breaker *resilience.CircuitBreaker
}

// NewBreakerChecker creates a checker for a circuit breaker.
func NewBreakerChecker(name string, breaker *resilience.CircuitBreaker) *BreakerChecker {
	return &BreakerChecker{name: name, breaker: breaker}
}

// Name returns the checker name.
func (c *BreakerChecker) Name() string {
	return c.name
}

// Check inspects the breaker state.
func (c *BreakerChecker) Check(_ context.Context) Result {
	state := c.breaker.State()
	if state == resilience.StateClosed {
		return Healthy("breaker closed")
	}
	return Degraded(fmt.Sprintf("breaker %s", state))
}
