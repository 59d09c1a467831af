package cache

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/campuskit/campuskit/kv"
)

// ErrNotFound signals a negative result: the underlying record does not
// exist. Compute functions return it to have the miss cached as a negative
// marker; readers receive it back on marker hits.
var ErrNotFound = errors.New("cache: record not found")

// negativeMarker is the distinguished value cached for not-found results.
// The leading NUL keeps it out of the space of caller-serialized payloads.
var negativeMarker = []byte("\x00nil")

// ComputeFunc recomputes a value from the source of truth. It returns
// ErrNotFound for records that do not exist.
type ComputeFunc func(ctx context.Context) ([]byte, error)

// Loader is the read path of a cacheable domain. It composes the versioned
// namespace, the stampede soft lock, hot-key promotion, and negative caching.
type Loader struct {
	store   kv.Store
	ns      *Namespace
	policy  Policy
	lock    *SoftLock
	tracker *HotTracker

	hits      atomic.Int64
	misses    atomic.Int64
	negatives atomic.Int64
	contended atomic.Int64
}

// NewLoader creates a loader for one namespace.
func NewLoader(store kv.Store, ns *Namespace, policy Policy) *Loader {
	policy = policy.withDefaults()
	return &Loader{
		store:   store,
		ns:      ns,
		policy:  policy,
		lock:    NewSoftLock(store, policy.LockTTL),
		tracker: NewHotTracker(store, policy.Window, policy.HotThreshold),
	}
}

// Namespace returns the loader's namespace.
func (l *Loader) Namespace() *Namespace {
	return l.ns
}

// GetOrCompute returns the cached value for the dimensions, recomputing it
// on a miss.
//
// On a miss the caller attempts the soft lock. The winner recomputes and
// writes (with the hot TTL once the access counter crossed the threshold
// this window); losers wait briefly, re-check the cache once, then fall
// through to the source of truth without writing. Not-found results are
// cached as a short-lived negative marker and surface as ErrNotFound.
func (l *Loader) GetOrCompute(ctx context.Context, dims []string, compute ComputeFunc) ([]byte, error) {
	key, err := l.ns.Key(ctx, dims...)
	if err != nil {
		return nil, err
	}

	hot, err := l.tracker.Touch(ctx, l.ns.LogicalKey(dims...))
	if err != nil {
		return nil, err
	}

	if value, ok, err := l.lookup(ctx, key); err != nil || ok {
		return value, err
	}
	l.misses.Add(1)

	acquired, err := l.lock.TryAcquire(ctx, key)
	if err != nil {
		return nil, err
	}

	if !acquired {
		// Someone else is recomputing. Wait briefly, re-check once, then
		// fall through to the source of truth without writing.
		l.contended.Add(1)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.policy.LockWait):
		}
		if value, ok, err := l.lookup(ctx, key); err != nil || ok {
			return value, err
		}
		return compute(ctx)
	}

	defer func() { _ = l.lock.Release(ctx, key) }()

	value, err := compute(ctx)
	if errors.Is(err, ErrNotFound) {
		if setErr := l.store.Set(ctx, key, negativeMarker, l.policy.NegativeTTL); setErr != nil {
			return nil, setErr
		}
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := l.store.Set(ctx, key, value, l.policy.EffectiveTTL(hot)); err != nil {
		return nil, err
	}
	return value, nil
}

// lookup reads the cache once, translating negative markers. ok is true on
// any addressable result, including a negative hit (err = ErrNotFound).
func (l *Loader) lookup(ctx context.Context, key string) ([]byte, bool, error) {
	value, ok, err := l.store.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	if bytes.Equal(value, negativeMarker) {
		l.negatives.Add(1)
		return nil, true, ErrNotFound
	}
	l.hits.Add(1)
	return value, true, nil
}

// Invalidate bumps the namespace version. Domain services call it exactly
// once after each successful create/update/delete.
func (l *Loader) Invalidate(ctx context.Context) error {
	_, err := l.ns.Bump(ctx)
	return err
}

// Metrics returns loader counters.
func (l *Loader) Metrics() LoaderMetrics {
	return LoaderMetrics{
		Hits:      l.hits.Load(),
		Misses:    l.misses.Load(),
		Negatives: l.negatives.Load(),
		Contended: l.contended.Load(),
	}
}

// LoaderMetrics contains loader statistics.
type LoaderMetrics struct {
	Hits      int64
	Misses    int64
	Negatives int64
	Contended int64
}
