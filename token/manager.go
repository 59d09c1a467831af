package token

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/campuskit/campuskit/kv"
)

// Kind distinguishes the three token kinds carried in the "kind" claim.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
	KindVerify  Kind = "verify"
)

// Config configures the token manager.
type Config struct {
	// Secret is the HS256 signing key. Required.
	Secret []byte

	// Issuer is the iss claim on issued tokens.
	Issuer string

	// AccessTTL is the access token lifetime.
	// Default: 30 minutes
	AccessTTL time.Duration

	// RefreshTTL is the refresh token lifetime.
	// Default: 7 days
	RefreshTTL time.Duration

	// VerifyTTL is the verify token lifetime.
	// Default: 15 minutes
	VerifyTTL time.Duration

	// TombstoneTTL is how long consumed verify tokens stay detectable.
	// Default: 24 hours
	TombstoneTTL time.Duration
}

// Manager issues, validates, and rotates signed tokens, keeping the
// revocation state for refresh and verify tokens in the kv store.
type Manager struct {
	config  Config
	refresh *RefreshStore
	store   kv.Store
}

// claims is the signed claim set shared by all three kinds.
type claims struct {
	Kind    Kind   `json:"kind"`
	Role    string `json:"role,omitempty"`
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// NewManager creates a token manager.
func NewManager(store kv.Store, config Config) (*Manager, error) {
	if len(config.Secret) == 0 {
		return nil, errors.New("token: signing secret is required")
	}
	if config.AccessTTL <= 0 {
		config.AccessTTL = 30 * time.Minute
	}
	if config.RefreshTTL <= 0 {
		config.RefreshTTL = 7 * 24 * time.Hour
	}
	if config.VerifyTTL <= 0 {
		config.VerifyTTL = 15 * time.Minute
	}
	if config.TombstoneTTL <= 0 {
		config.TombstoneTTL = 24 * time.Hour
	}

	return &Manager{
		config:  config,
		refresh: NewRefreshStore(store),
		store:   store,
	}, nil
}

// Pair is an access/refresh token pair.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// IssuePair issues a new access+refresh pair for a user and persists the
// refresh record.
func (m *Manager) IssuePair(ctx context.Context, userID, role string) (Pair, error) {
	now := time.Now().UTC()

	accessExp := now.Add(m.config.AccessTTL)
	access, _, err := m.sign(claims{Kind: KindAccess, Role: role}, userID, now, accessExp)
	if err != nil {
		return Pair{}, err
	}

	refreshExp := now.Add(m.config.RefreshTTL)
	refresh, jti, err := m.sign(claims{Kind: KindRefresh, Role: role}, userID, now, refreshExp)
	if err != nil {
		return Pair{}, err
	}

	err = m.refresh.Save(ctx, RefreshRecord{
		JTI:       jti,
		UserID:    userID,
		Role:      role,
		ExpiresAt: refreshExp,
	})
	if err != nil {
		return Pair{}, err
	}

	return Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Authenticate validates an access token by signature and expiry alone.
//
// There is deliberately no revocation check on the access path: access
// tokens are short-lived and keeping their validation stateless keeps the
// hot path off the store.
func (m *Manager) Authenticate(raw string) (*Identity, error) {
	cl, err := m.parse(raw, KindAccess)
	if err != nil {
		return nil, err
	}

	return &Identity{
		Principal: cl.Subject,
		Role:      cl.Role,
		JTI:       cl.ID,
		ExpiresAt: cl.ExpiresAt.Time,
		IssuedAt:  cl.IssuedAt.Time,
	}, nil
}

// Rotate validates the old refresh token, revokes it, and issues a new pair.
//
// Deletion of the record is the single source of revocation truth: replaying
// the old token after rotation fails deterministically with ErrTokenRevoked.
func (m *Manager) Rotate(ctx context.Context, rawRefresh string) (Pair, error) {
	rec, err := m.checkRefresh(ctx, rawRefresh)
	if err != nil {
		return Pair{}, err
	}

	if err := m.refresh.Revoke(ctx, rec.JTI); err != nil {
		return Pair{}, err
	}

	return m.IssuePair(ctx, rec.UserID, rec.Role)
}

// Logout validates the refresh token and revokes it.
func (m *Manager) Logout(ctx context.Context, rawRefresh string) error {
	rec, err := m.checkRefresh(ctx, rawRefresh)
	if err != nil {
		return err
	}
	return m.refresh.Revoke(ctx, rec.JTI)
}

// checkRefresh validates signature/expiry and the record's existence.
func (m *Manager) checkRefresh(ctx context.Context, raw string) (RefreshRecord, error) {
	cl, err := m.parse(raw, KindRefresh)
	if err != nil {
		return RefreshRecord{}, err
	}

	rec, ok, err := m.refresh.Find(ctx, cl.ID)
	if err != nil {
		return RefreshRecord{}, err
	}
	if !ok {
		// Already rotated, revoked, or logged out.
		return RefreshRecord{}, ErrTokenRevoked
	}
	return rec, nil
}

func (m *Manager) sign(cl claims, subject string, now, exp time.Time) (string, string, error) {
	jti := uuid.NewString()

	cl.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    m.config.Issuer,
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        jti,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, cl)
	signed, err := t.SignedString(m.config.Secret)
	if err != nil {
		return "", "", err
	}
	return signed, jti, nil
}

func (m *Manager) parse(raw string, kind Kind) (*claims, error) {
	if raw == "" {
		return nil, ErrMissingToken
	}

	var out claims
	t, err := jwt.ParseWithClaims(raw, &out, func(t *jwt.Token) (any, error) {
		return m.config.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !t.Valid || out.Kind != kind {
		return nil, ErrInvalidToken
	}
	if m.config.Issuer != "" && out.Issuer != m.config.Issuer {
		return nil, ErrInvalidToken
	}
	return &out, nil
}
