package token

import (
	"context"
	"encoding/json"
	"time"

	"github.com/campuskit/campuskit/kv"
)

// RefreshRecord is the cache-side half of a refresh token. Existence of the
// record is what makes the token valid; revocation is deletion, not a
// blacklist.
type RefreshRecord struct {
	JTI       string    `json:"jti"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role,omitempty"`
	ExpiresAt time.Time `json:"exp"`
}

// RefreshStore persists refresh records under refresh:<jti>.
type RefreshStore struct {
	store kv.Store
}

// NewRefreshStore creates a refresh record store.
func NewRefreshStore(store kv.Store) *RefreshStore {
	return &RefreshStore{store: store}
}

func refreshKey(jti string) string {
	return kv.Key("refresh", jti)
}

// Save persists the record with TTL equal to the token's remaining lifetime.
func (s *RefreshStore) Save(ctx context.Context, rec RefreshRecord) error {
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return ErrTokenExpired
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, refreshKey(rec.JTI), b, ttl)
}

// Find returns the record for a jti. A miss means the token was rotated,
// revoked, or logged out.
func (s *RefreshStore) Find(ctx context.Context, jti string) (RefreshRecord, bool, error) {
	b, ok, err := s.store.Get(ctx, refreshKey(jti))
	if err != nil || !ok {
		return RefreshRecord{}, false, err
	}
	var rec RefreshRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return RefreshRecord{}, false, err
	}
	return rec, true, nil
}

// Revoke deletes the record. Idempotent.
func (s *RefreshStore) Revoke(ctx context.Context, jti string) error {
	return s.store.Delete(ctx, refreshKey(jti))
}
