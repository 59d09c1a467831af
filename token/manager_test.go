package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campuskit/campuskit/kv"
)

func newTestManager(t *testing.T, config Config) (*Manager, kv.Store) {
	t.Helper()
	if config.Secret == nil {
		config.Secret = []byte("test-secret-at-least-32-bytes-long")
	}
	store := kv.NewMemory()
	m, err := NewManager(store, config)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m, store
}

func TestNewManager_RequiresSecret(t *testing.T) {
	_, err := NewManager(kv.NewMemory(), Config{})
	if err == nil {
		t.Fatal("NewManager() error = nil, want error without secret")
	}
}

func TestNewManager_Defaults(t *testing.T) {
	m, _ := newTestManager(t, Config{})

	if m.config.AccessTTL != 30*time.Minute {
		t.Errorf("AccessTTL = %v, want 30m", m.config.AccessTTL)
	}
	if m.config.RefreshTTL != 7*24*time.Hour {
		t.Errorf("RefreshTTL = %v, want 168h", m.config.RefreshTTL)
	}
	if m.config.VerifyTTL != 15*time.Minute {
		t.Errorf("VerifyTTL = %v, want 15m", m.config.VerifyTTL)
	}
	if m.config.TombstoneTTL != 24*time.Hour {
		t.Errorf("TombstoneTTL = %v, want 24h", m.config.TombstoneTTL)
	}
}

func TestManager_IssueAndAuthenticate(t *testing.T) {
	m, _ := newTestManager(t, Config{Issuer: "campuskit"})
	ctx := context.Background()

	pair, err := m.IssuePair(ctx, "student-42", "student")
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("IssuePair() returned empty tokens")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Error("access and refresh tokens are identical")
	}

	id, err := m.Authenticate(pair.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if id.Principal != "student-42" {
		t.Errorf("Principal = %q, want %q", id.Principal, "student-42")
	}
	if id.Role != "student" {
		t.Errorf("Role = %q, want %q", id.Role, "student")
	}
	if id.JTI == "" {
		t.Error("JTI is empty")
	}
	if !id.HasRole("student") || id.HasRole("teacher") {
		t.Error("HasRole() mismatch")
	}
}

func TestManager_AuthenticateRejectsGarbage(t *testing.T) {
	m, _ := newTestManager(t, Config{})

	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", ErrMissingToken},
		{"malformed", "not-a-jwt", ErrInvalidToken},
		{"wrong segments", "a.b.c", ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Authenticate(tt.raw); !errors.Is(err, tt.want) {
				t.Errorf("Authenticate(%q) = %v, want %v", tt.raw, err, tt.want)
			}
		})
	}
}

func TestManager_AuthenticateRejectsRefreshToken(t *testing.T) {
	m, _ := newTestManager(t, Config{})
	ctx := context.Background()

	pair, err := m.IssuePair(ctx, "student-42", "student")
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}

	// A refresh token must not work on the access path.
	if _, err := m.Authenticate(pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Authenticate(refresh) = %v, want ErrInvalidToken", err)
	}
}

func TestManager_AuthenticateRejectsForeignSignature(t *testing.T) {
	m1, _ := newTestManager(t, Config{Secret: []byte("secret-one-needs-enough-length!!")})
	m2, _ := newTestManager(t, Config{Secret: []byte("secret-two-needs-enough-length!!")})
	ctx := context.Background()

	pair, err := m1.IssuePair(ctx, "student-42", "student")
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}

	if _, err := m2.Authenticate(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Authenticate(foreign signature) = %v, want ErrInvalidToken", err)
	}
}

func TestManager_AuthenticateExpired(t *testing.T) {
	m, _ := newTestManager(t, Config{AccessTTL: time.Millisecond})
	ctx := context.Background()

	pair, err := m.IssuePair(ctx, "student-42", "student")
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, err := m.Authenticate(pair.AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Authenticate(expired) = %v, want ErrTokenExpired", err)
	}
}

func TestManager_IssuerMismatch(t *testing.T) {
	issuer, _ := newTestManager(t, Config{Issuer: "other-service"})
	verifier, _ := newTestManager(t, Config{Issuer: "campuskit"})
	ctx := context.Background()

	pair, err := issuer.IssuePair(ctx, "student-42", "student")
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}

	if _, err := verifier.Authenticate(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Authenticate(wrong issuer) = %v, want ErrInvalidToken", err)
	}
}

func TestManager_RotateInvalidatesOldToken(t *testing.T) {
	m, _ := newTestManager(t, Config{})
	ctx := context.Background()

	pair, err := m.IssuePair(ctx, "student-42", "student")
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}

	next, err := m.Rotate(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Rotate() error = %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Error("Rotate() returned the same refresh token")
	}

	// Replaying the rotated-away token must fail.
	if _, err := m.Rotate(ctx, pair.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("Rotate(replayed) = %v, want ErrTokenRevoked", err)
	}

	// The new token still works and preserves the identity.
	final, err := m.Rotate(ctx, next.RefreshToken)
	if err != nil {
		t.Fatalf("Rotate(new) error = %v", err)
	}
	id, err := m.Authenticate(final.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if id.Principal != "student-42" || id.Role != "student" {
		t.Errorf("identity after rotation = %+v, want student-42/student", id)
	}
}

func TestManager_RotateRejectsAccessToken(t *testing.T) {
	m, _ := newTestManager(t, Config{})
	ctx := context.Background()

	pair, err := m.IssuePair(ctx, "student-42", "student")
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}

	if _, err := m.Rotate(ctx, pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Rotate(access token) = %v, want ErrInvalidToken", err)
	}
}

func TestManager_Logout(t *testing.T) {
	m, store := newTestManager(t, Config{})
	ctx := context.Background()

	pair, err := m.IssuePair(ctx, "student-42", "student")
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}

	if err := m.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	// The session is gone: the refresh token no longer rotates.
	if _, err := m.Rotate(ctx, pair.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("Rotate(after logout) = %v, want ErrTokenRevoked", err)
	}

	// And no refresh records linger.
	keys, err := store.Keys(ctx, "refresh:*")
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("refresh records after logout = %v, want none", keys)
	}
}

func TestManager_LogoutTwice(t *testing.T) {
	m, _ := newTestManager(t, Config{})
	ctx := context.Background()

	pair, err := m.IssuePair(ctx, "student-42", "student")
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}

	if err := m.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if err := m.Logout(ctx, pair.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("second Logout() = %v, want ErrTokenRevoked", err)
	}
}

func TestRefreshStore_SaveRejectsExpired(t *testing.T) {
	s := NewRefreshStore(kv.NewMemory())

	err := s.Save(context.Background(), RefreshRecord{
		JTI:       "jti-1",
		UserID:    "student-42",
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Save(expired) = %v, want ErrTokenExpired", err)
	}
}

func TestRefreshStore_RecordLifetimeTracksToken(t *testing.T) {
	store := kv.NewMemory()
	s := NewRefreshStore(store)
	ctx := context.Background()

	err := s.Save(ctx, RefreshRecord{
		JTI:       "jti-1",
		UserID:    "student-42",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	ttl, ok, err := store.TTL(ctx, "refresh:jti-1")
	if err != nil || !ok {
		t.Fatalf("TTL() = (%v, %v, %v)", ttl, ok, err)
	}
	if ttl <= 0 || ttl > time.Hour {
		t.Errorf("record TTL = %v, want in (0, 1h]", ttl)
	}
}
