package kv

import (
	"context"
	"path"
	"strconv"
	"sync"
	"time"
)

// Memory is an in-memory Store for tests and single-process deployments.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	closed  bool
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e *memoryEntry) expired() bool {
	return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*memoryEntry)}
}

// Get retrieves a value. Returns (nil, false, nil) on miss or expiry.
func (s *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if entry.expired() {
		// Expired - clean up lazily. Delete only the entry we observed: a
		// concurrent Set may have replaced it after the RUnlock above.
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && cur == entry {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set stores a value with the given TTL. TTL=0 means no expiry.
func (s *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.entries[key] = newEntry(value, ttl)
	return nil
}

// Delete removes keys. Idempotent - no error on miss.
func (s *Memory) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.entries, key)
	}
	return nil
}

// Exists reports whether the key is present.
func (s *Memory) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.Get(ctx, key)
	return ok, err
}

// Increment adds amount to the counter at key, applying the TTL only when
// the increment creates the counter.
func (s *Memory) Increment(_ context.Context, key string, amount int64, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || entry.expired() {
		s.entries[key] = newEntry([]byte(strconv.FormatInt(amount, 10)), ttl)
		return amount, nil
	}

	n, err := strconv.ParseInt(string(entry.value), 10, 64)
	if err != nil {
		return 0, err
	}
	n += amount
	entry.value = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

// Decrement subtracts amount from the counter at key.
func (s *Memory) Decrement(ctx context.Context, key string, amount int64) (int64, error) {
	return s.Increment(ctx, key, -amount, 0)
}

// SetNX stores a value only if the key is absent.
func (s *Memory) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[key]; ok && !entry.expired() {
		return false, nil
	}
	s.entries[key] = newEntry(value, ttl)
	return true, nil
}

// TTL returns the remaining lifetime of a key.
func (s *Memory) TTL(_ context.Context, key string) (time.Duration, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok || entry.expired() {
		return 0, false, nil
	}
	if entry.expiresAt.IsZero() {
		return 0, true, nil
	}
	return time.Until(entry.expiresAt), true, nil
}

// Expire sets a new TTL on an existing key.
func (s *Memory) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || entry.expired() {
		return false, nil
	}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	} else {
		entry.expiresAt = time.Time{}
	}
	return true, nil
}

// DeletePattern removes all keys matching the glob pattern.
func (s *Memory) DeletePattern(ctx context.Context, pattern string) (int64, error) {
	keys, err := s.Keys(ctx, pattern)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for _, key := range keys {
		if _, ok := s.entries[key]; ok {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Keys returns all keys matching the glob pattern.
func (s *Memory) Keys(_ context.Context, pattern string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for key, entry := range s.entries {
		if entry.expired() {
			continue
		}
		ok, err := path.Match(pattern, key)
		if err != nil {
			return nil, err
		}
		if ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Size returns the number of live keys.
func (s *Memory) Size(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, entry := range s.entries {
		if !entry.expired() {
			n++
		}
	}
	return n, nil
}

// ConsumeOnce atomically reads and deletes a key.
func (s *Memory) ConsumeOnce(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || entry.expired() {
		return nil, false, nil
	}
	delete(s.entries, key)
	return entry.value, true, nil
}

// Ping always succeeds for the in-memory store.
func (s *Memory) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Close marks the store closed and drops all entries.
func (s *Memory) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries = make(map[string]*memoryEntry)
	return nil
}

func newEntry(value []byte, ttl time.Duration) *memoryEntry {
	entry := &memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	return entry
}

// Ensure Memory implements Store
var _ Store = (*Memory)(nil)
