package token

import (
	"context"
	"time"
)

// Identity represents an authenticated principal.
type Identity struct {
	// Principal is the unique user identifier.
	Principal string

	// Role is the role carried by the access token.
	Role string

	// JTI is the token identifier.
	JTI string

	// ExpiresAt is when the backing token expires.
	ExpiresAt time.Time

	// IssuedAt is when the backing token was issued.
	IssuedAt time.Time
}

// HasRole checks if the identity has the given role.
func (id *Identity) HasRole(role string) bool {
	return id.Role == role
}

// IsExpired checks if the identity has expired.
func (id *Identity) IsExpired() bool {
	if id.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(id.ExpiresAt)
}

type contextKey int

const identityKey contextKey = iota

// WithIdentity returns a new context with the given identity attached.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the identity from the context.
// Returns nil if no identity is present.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// PrincipalFromContext retrieves the principal from the context.
// Returns empty string if no identity is present.
func PrincipalFromContext(ctx context.Context) string {
	id := IdentityFromContext(ctx)
	if id == nil {
		return ""
	}
	return id.Principal
}
