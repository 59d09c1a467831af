package ratelimit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/campuskit/campuskit/kv"
)

// BucketConfig configures the token-bucket limiter variant.
type BucketConfig struct {
	// Rate is the refill rate in tokens per second.
	// Default: 10
	Rate float64

	// Burst is the bucket capacity.
	// Default: 20
	Burst float64

	// KeyPrefix namespaces the bucket keys.
	// Default: "tb"
	KeyPrefix string
}

// bucketState is the JSON blob persisted per identity.
type bucketState struct {
	Tokens     float64 `json:"tokens"`
	LastRefill int64   `json:"last_refill_ms"`
}

// TokenBucket is the burst-tolerant limiter variant. Each identity owns one
// bucket stored as a JSON blob in the kv facade, refilled proportionally to
// elapsed time on every check.
//
// The read-modify-write is not atomic across processes; under contention the
// bucket may briefly over-admit, which the sliding-window tiers bound.
type TokenBucket struct {
	store  kv.Store
	config BucketConfig
	now    func() time.Time
}

// NewTokenBucket creates a token-bucket limiter.
func NewTokenBucket(store kv.Store, config BucketConfig) *TokenBucket {
	if config.Rate <= 0 {
		config.Rate = 10
	}
	if config.Burst <= 0 {
		config.Burst = 20
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "tb"
	}
	return &TokenBucket{store: store, config: config, now: time.Now}
}

// Allow consumes one token for the identity if available.
func (b *TokenBucket) Allow(ctx context.Context, identity string) (bool, error) {
	key := kv.Key(b.config.KeyPrefix, identity)
	now := b.now()

	state := bucketState{Tokens: b.config.Burst, LastRefill: now.UnixMilli()}
	raw, ok, err := b.store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if ok {
		if err := json.Unmarshal(raw, &state); err != nil {
			return false, err
		}
	}

	elapsed := float64(now.UnixMilli()-state.LastRefill) / 1000.0
	if elapsed < 0 {
		elapsed = 0
	}
	state.Tokens += elapsed * b.config.Rate
	if state.Tokens > b.config.Burst {
		state.Tokens = b.config.Burst
	}
	state.LastRefill = now.UnixMilli()

	allowed := state.Tokens >= 1
	if allowed {
		state.Tokens--
	}

	out, err := json.Marshal(state)
	if err != nil {
		return false, err
	}
	// Idle buckets expire once fully refilled.
	ttl := time.Duration(b.config.Burst/b.config.Rate*float64(time.Second)) + time.Second
	if err := b.store.Set(ctx, key, out, ttl); err != nil {
		return false, err
	}
	return allowed, nil
}
