package kv

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a key.
const MaxKeyLength = 512

// Sentinel errors for kv operations.
var (
	ErrInvalidKey = errors.New("kv: key is invalid")
	ErrKeyTooLong = errors.New("kv: key exceeds max length")
	ErrClosed     = errors.New("kv: store is closed")
)

// Store is the uniform facade over a shared key-value store with per-key TTL.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Values: opaque bytes, serialized by the caller. Writes are full
//     replacements; no entry is ever partially updated.
//   - Misses: Get and ConsumeOnce return (nil, false, nil) on miss; a miss
//     is not an error.
//   - Errors: backend faults propagate undecorated. The facade has no retry
//     or circuit-breaker policy of its own; callers that need resilience
//     compose it with the resilience package.
type Store interface {
	// Get retrieves a value. Returns (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. TTL=0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes keys. Idempotent - no error on miss.
	Delete(ctx context.Context, keys ...string) error

	// Exists reports whether the key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Increment adds amount to the counter at key, creating it at amount.
	// The TTL is applied only on the increment that creates the counter.
	Increment(ctx context.Context, key string, amount int64, ttl time.Duration) (int64, error)

	// Decrement subtracts amount from the counter at key.
	Decrement(ctx context.Context, key string, amount int64) (int64, error)

	// SetNX stores a value only if the key is absent. Returns true if the
	// write happened.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// TTL returns the remaining lifetime of a key. Returns (0, false, nil)
	// when the key does not exist; ok=true with ttl=0 means no expiry.
	TTL(ctx context.Context, key string) (ttl time.Duration, ok bool, err error)

	// Expire sets a new TTL on an existing key. Returns false if the key
	// does not exist.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// DeletePattern removes all keys matching the glob pattern and returns
	// how many were removed.
	DeletePattern(ctx context.Context, pattern string) (int64, error)

	// Keys returns all keys matching the glob pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Size returns the number of keys in the store.
	Size(ctx context.Context) (int64, error)

	// ConsumeOnce atomically reads and deletes a key. At most one caller
	// observes the value; everyone else gets a miss.
	ConsumeOnce(ctx context.Context, key string) ([]byte, bool, error)

	// Ping verifies connectivity to the backend.
	Ping(ctx context.Context) error

	// Close releases the backend connection.
	Close() error
}

// ValidateKey checks if a key is valid.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}

// Key joins namespace dimensions into a single `<domain>:<dimension>...` key.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
