package cache

import "time"

// Policy configures TTLs and promotion thresholds for a cacheable domain.
type Policy struct {
	// TTL is the normal lifetime of a cached entry.
	// Default: 5 minutes
	TTL time.Duration

	// HotTTL is the extended lifetime used once a key is promoted.
	// Default: 30 minutes
	HotTTL time.Duration

	// NegativeTTL is the short lifetime of not-found markers.
	// Default: 60 seconds
	NegativeTTL time.Duration

	// LockTTL is the lifetime of the recompute soft lock.
	// Default: 5 seconds
	LockTTL time.Duration

	// LockWait is how long a lock loser waits before re-checking the cache.
	// Default: 50ms
	LockWait time.Duration

	// HotThreshold is the number of accesses per window that promotes a key.
	// Default: 16
	HotThreshold int64

	// Window is the hot-key counting window.
	// Default: 60 seconds
	Window time.Duration
}

// DefaultPolicy returns the default caching policy.
func DefaultPolicy() Policy {
	return Policy{
		TTL:          5 * time.Minute,
		HotTTL:       30 * time.Minute,
		NegativeTTL:  60 * time.Second,
		LockTTL:      5 * time.Second,
		LockWait:     50 * time.Millisecond,
		HotThreshold: 16,
		Window:       60 * time.Second,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.TTL <= 0 {
		p.TTL = d.TTL
	}
	if p.HotTTL <= 0 {
		p.HotTTL = d.HotTTL
	}
	if p.NegativeTTL <= 0 {
		p.NegativeTTL = d.NegativeTTL
	}
	if p.LockTTL <= 0 {
		p.LockTTL = d.LockTTL
	}
	if p.LockWait <= 0 {
		p.LockWait = d.LockWait
	}
	if p.HotThreshold <= 0 {
		p.HotThreshold = d.HotThreshold
	}
	if p.Window <= 0 {
		p.Window = d.Window
	}
	return p
}

// EffectiveTTL returns the write TTL, extended when the key is hot.
// Promotion is decided at write time, once the counter has crossed the
// threshold within the current window.
func (p Policy) EffectiveTTL(hot bool) time.Duration {
	if hot {
		return p.HotTTL
	}
	return p.TTL
}
