package ratelimit

import (
	"context"
	"net/http"
	"time"

	"github.com/campuskit/campuskit/kv"
)

// Tier configures one rate-limit tier. Tiers are independent: an endpoint
// group gets its own prefix, budget, and identity function.
type Tier struct {
	// Points is the number of requests allowed per window.
	// Default: 60
	Points int64

	// Window is the counting window. Counters reset when its TTL lapses.
	// Default: 60 seconds
	Window time.Duration

	// BlockDuration, when positive, escalates an exhausted budget into a
	// block flag that short-circuits requests without touching the counter.
	BlockDuration time.Duration

	// KeyPrefix namespaces this tier's keys.
	// Default: "rl"
	KeyPrefix string

	// Identity derives the counted identity from a request: the
	// authenticated principal when present, the client IP otherwise.
	// Default: PrincipalOrIP(false)
	Identity func(r *http.Request) string

	// Message is the client-facing 429 message.
	// Default: "too many requests"
	Message string
}

// StrictAuthConfig configures escalation on repeated authorization failures.
type StrictAuthConfig struct {
	// Enabled turns on the middleware's post-handler 401/403 observation
	// stage. RecordAuthFailure works regardless for callers driving it
	// directly.
	Enabled bool

	// Threshold is the number of failures that triggers a block.
	// Default: 5
	Threshold int64

	// Window is the failure-counting window.
	// Default: 5 minutes
	Window time.Duration

	// Cooldown is how long the identity stays blocked.
	// Default: 120 seconds
	Cooldown time.Duration
}

// Decision is the outcome of a rate-limit check.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Remaining is the budget left in the current window.
	Remaining int64

	// RetryAfter is how long the caller should wait. Always positive when
	// the request is rejected.
	RetryAfter time.Duration

	// Blocked reports whether the rejection came from an escalation block
	// rather than the raw counter.
	Blocked bool
}

// Limiter is a sliding-window-by-truncation rate limiter over the kv
// facade's increment-with-window operation.
type Limiter struct {
	store  kv.Store
	tier   Tier
	strict StrictAuthConfig
}

// NewLimiter creates a limiter for one tier.
func NewLimiter(store kv.Store, tier Tier, strict StrictAuthConfig) *Limiter {
	if tier.Points <= 0 {
		tier.Points = 60
	}
	if tier.Window <= 0 {
		tier.Window = 60 * time.Second
	}
	if tier.KeyPrefix == "" {
		tier.KeyPrefix = "rl"
	}
	if tier.Identity == nil {
		tier.Identity = PrincipalOrIP(false)
	}
	if tier.Message == "" {
		tier.Message = "too many requests"
	}
	if strict.Threshold <= 0 {
		strict.Threshold = 5
	}
	if strict.Window <= 0 {
		strict.Window = 5 * time.Minute
	}
	if strict.Cooldown <= 0 {
		strict.Cooldown = 120 * time.Second
	}

	return &Limiter{store: store, tier: tier, strict: strict}
}

// Tier returns the limiter's tier configuration.
func (l *Limiter) Tier() Tier {
	return l.tier
}

func (l *Limiter) counterKey(identity string) string {
	return kv.Key(l.tier.KeyPrefix, identity)
}

func (l *Limiter) blockedKey(identity string) string {
	return kv.Key(l.tier.KeyPrefix, identity, "blocked")
}

func (l *Limiter) unauthKey(identity string) string {
	return kv.Key(l.tier.KeyPrefix, identity, "unauth")
}

// Check counts one request for the identity and decides whether it may
// proceed. A live block flag short-circuits before the counter is touched.
func (l *Limiter) Check(ctx context.Context, identity string) (Decision, error) {
	if blocked, retryAfter, err := l.isBlocked(ctx, identity); err != nil {
		return Decision{}, err
	} else if blocked {
		return Decision{Allowed: false, RetryAfter: retryAfter, Blocked: true}, nil
	}

	count, err := l.store.Increment(ctx, l.counterKey(identity), 1, l.tier.Window)
	if err != nil {
		return Decision{}, err
	}

	remaining := l.tier.Points - count
	if remaining < 0 {
		remaining = 0
	}

	if count <= l.tier.Points {
		return Decision{Allowed: true, Remaining: remaining}, nil
	}

	retryAfter, ok, err := l.store.TTL(ctx, l.counterKey(identity))
	if err != nil {
		return Decision{}, err
	}
	if !ok || retryAfter <= 0 {
		retryAfter = l.tier.Window
	}

	if l.tier.BlockDuration > 0 {
		if err := l.Block(ctx, identity, l.tier.BlockDuration); err != nil {
			return Decision{}, err
		}
		retryAfter = l.tier.BlockDuration
	}

	return Decision{Allowed: false, RetryAfter: retryAfter}, nil
}

// Block sets the escalation flag for the identity.
func (l *Limiter) Block(ctx context.Context, identity string, d time.Duration) error {
	return l.store.Set(ctx, l.blockedKey(identity), []byte("1"), d)
}

func (l *Limiter) isBlocked(ctx context.Context, identity string) (bool, time.Duration, error) {
	blocked, err := l.store.Exists(ctx, l.blockedKey(identity))
	if err != nil || !blocked {
		return false, 0, err
	}
	retryAfter, ok, err := l.store.TTL(ctx, l.blockedKey(identity))
	if err != nil {
		return false, 0, err
	}
	if !ok || retryAfter <= 0 {
		retryAfter = time.Second
	}
	return true, retryAfter, nil
}

// RecordAuthFailure counts one 401/403 outcome for the identity. Crossing
// the strict-auth threshold blocks the identity for the cooldown and clears
// the failure counter. This escalates credential-stuffing patterns faster
// than the raw request-rate tier would.
func (l *Limiter) RecordAuthFailure(ctx context.Context, identity string) error {
	n, err := l.store.Increment(ctx, l.unauthKey(identity), 1, l.strict.Window)
	if err != nil {
		return err
	}
	if n < l.strict.Threshold {
		return nil
	}
	if err := l.Block(ctx, identity, l.strict.Cooldown); err != nil {
		return err
	}
	return l.store.Delete(ctx, l.unauthKey(identity))
}
