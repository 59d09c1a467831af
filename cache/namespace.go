package cache

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/campuskit/campuskit/kv"
)

// Namespace owns the version counter of one cacheable domain (courses,
// catalogue entries, grades).
//
// Reads build cache keys that embed the last observed version; a Bump after
// any write makes every prior key unaddressable without enumerating them.
// Stale entries expire via their own TTLs. This trades bounded extra memory
// for O(1) invalidation and avoids scan-delete races.
type Namespace struct {
	store kv.Store
	name  string

	group singleflight.Group

	mu      sync.Mutex
	version int64
	loaded  bool
}

// NewNamespace creates a namespace over the given store.
func NewNamespace(store kv.Store, name string) *Namespace {
	return &Namespace{store: store, name: name}
}

// Name returns the namespace name.
func (n *Namespace) Name() string {
	return n.name
}

func (n *Namespace) counterKey() string {
	return kv.Key("version", n.name)
}

// Version returns the namespace version, reading it lazily from the store on
// first use and caching it in-process for the lifetime of the instance.
// Concurrent first reads collapse into a single store round trip.
func (n *Namespace) Version(ctx context.Context) (int64, error) {
	n.mu.Lock()
	if n.loaded {
		v := n.version
		n.mu.Unlock()
		return v, nil
	}
	n.mu.Unlock()

	v, err, _ := n.group.Do("version", func() (any, error) {
		return n.readVersion(ctx)
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

func (n *Namespace) readVersion(ctx context.Context) (int64, error) {
	b, ok, err := n.store.Get(ctx, n.counterKey())
	if err != nil {
		return 0, err
	}

	version := int64(1)
	if ok {
		version, err = strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			return 0, err
		}
	} else {
		// First reader seeds the counter. SetNX so a concurrent Bump wins.
		if _, err := n.store.SetNX(ctx, n.counterKey(), []byte("1"), 0); err != nil {
			return 0, err
		}
	}

	n.mu.Lock()
	n.version = version
	n.loaded = true
	n.mu.Unlock()
	return version, nil
}

// Bump increments the version counter. Writers call it exactly once after the
// underlying write succeeds; everything cached under earlier versions becomes
// unreachable from that point on.
func (n *Namespace) Bump(ctx context.Context) (int64, error) {
	v, err := n.store.Increment(ctx, n.counterKey(), 1, 0)
	if err != nil {
		return 0, err
	}

	n.mu.Lock()
	n.version = v
	n.loaded = true
	n.mu.Unlock()
	return v, nil
}

// Key builds the cache key for the given dimensions:
// <namespace>:v:<version>:<dim>...
func (n *Namespace) Key(ctx context.Context, dims ...string) (string, error) {
	version, err := n.Version(ctx)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(dims)+3)
	parts = append(parts, n.name, "v", strconv.FormatInt(version, 10))
	parts = append(parts, dims...)
	return strings.Join(parts, ":"), nil
}

// LogicalKey builds the version-independent key for the given dimensions,
// used by the hot-key counter so promotion survives version bumps.
func (n *Namespace) LogicalKey(dims ...string) string {
	parts := make([]string, 0, len(dims)+1)
	parts = append(parts, n.name)
	parts = append(parts, dims...)
	return strings.Join(parts, ":")
}
