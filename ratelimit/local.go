package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LocalLimiter keeps per-identity token buckets in process memory, for
// single-process deployments where a shared store is overkill. Idle entries
// are evicted by a janitor goroutine.
type LocalLimiter struct {
	mu      sync.Mutex
	entries map[string]*localEntry

	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type localEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// LocalOption configures a LocalLimiter.
type LocalOption func(*LocalLimiter)

// WithIdleTTL sets how long unused identities are kept.
func WithIdleTTL(d time.Duration) LocalOption {
	return func(l *LocalLimiter) { l.idleTTL = d }
}

// WithCleanupEvery sets the janitor interval.
func WithCleanupEvery(d time.Duration) LocalOption {
	return func(l *LocalLimiter) { l.cleanupEvery = d }
}

// NewLocalLimiter creates an in-process limiter.
func NewLocalLimiter(rps float64, burst int, opts ...LocalOption) *LocalLimiter {
	l := &LocalLimiter{
		entries:      make(map[string]*localEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow reports whether the identity may proceed now.
func (l *LocalLimiter) Allow(identity string) bool {
	return l.limiter(identity).Allow()
}

func (l *LocalLimiter) limiter(identity string) *rate.Limiter {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if ent, ok := l.entries[identity]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(l.rps, l.burst)
	l.entries[identity] = &localEntry{lim: lim, lastSeen: now}
	return lim
}

// Cleanup evicts identities idle longer than the idle TTL.
func (l *LocalLimiter) Cleanup() {
	cutoff := time.Now().Add(-l.idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()

	for k, ent := range l.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(l.entries, k)
		}
	}
}

// StartJanitor evicts idle identities periodically until the context is
// cancelled.
func (l *LocalLimiter) StartJanitor(ctx context.Context) {
	if l.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(l.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				l.Cleanup()
			}
		}
	}()
}
