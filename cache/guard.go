package cache

import (
	"context"
	"time"

	"github.com/campuskit/campuskit/kv"
)

// SoftLock is a short-TTL "first writer wins" marker that bounds duplicate
// recomputation of an expensive key. It is probabilistic, not a queue:
// losers retry briefly or fall through to the source of truth.
type SoftLock struct {
	store kv.Store
	ttl   time.Duration
}

// NewSoftLock creates a soft lock with the given TTL.
// Default TTL: 5 seconds.
func NewSoftLock(store kv.Store, ttl time.Duration) *SoftLock {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &SoftLock{store: store, ttl: ttl}
}

// TryAcquire attempts to claim the recompute lock for key. Returns true when
// this caller is the one recomputing.
func (l *SoftLock) TryAcquire(ctx context.Context, key string) (bool, error) {
	return l.store.SetNX(ctx, key+":lock", []byte("1"), l.ttl)
}

// Release drops the lock. Called on every exit path of the recompute; the
// TTL covers a crashed holder.
func (l *SoftLock) Release(ctx context.Context, key string) error {
	return l.store.Delete(ctx, key+":lock")
}

// HotTracker counts accesses per logical key in a fixed window and reports
// when a key has crossed the promotion threshold.
//
// The counter resets implicitly when the window's TTL lapses. Promotion is
// sticky within a window: once above the threshold, every subsequent write
// in that window uses the extended TTL.
type HotTracker struct {
	store     kv.Store
	window    time.Duration
	threshold int64
}

// NewHotTracker creates a hot-key tracker.
// Defaults: 60s window, threshold 16.
func NewHotTracker(store kv.Store, window time.Duration, threshold int64) *HotTracker {
	if window <= 0 {
		window = 60 * time.Second
	}
	if threshold <= 0 {
		threshold = 16
	}
	return &HotTracker{store: store, window: window, threshold: threshold}
}

// Touch records one access to the logical key and reports whether the key is
// hot in the current window.
func (t *HotTracker) Touch(ctx context.Context, logicalKey string) (bool, error) {
	n, err := t.store.Increment(ctx, kv.Key("hot", logicalKey), 1, t.window)
	if err != nil {
		return false, err
	}
	return n >= t.threshold, nil
}
