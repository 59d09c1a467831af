package token

import (
	"errors"

	"github.com/campuskit/campuskit/fault"
)

// Sentinel errors for token lifecycle operations.
var (
	ErrMissingToken = errors.New("token: missing token")
	ErrInvalidToken = errors.New("token: invalid token")
	ErrTokenExpired = errors.New("token: token expired")
	ErrTokenRevoked = errors.New("token: token revoked")
	ErrTokenUsed    = errors.New("token: token already used")
)

// Fault translates a token error into the boundary fault taxonomy.
//
// All authentication failures collapse into the same 401 message so a caller
// cannot distinguish a revoked token from a malformed one, and a missing
// account from a wrong credential.
func Fault(err error) *fault.Fault {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrTokenUsed):
		return fault.BadRequest("token already used").WithCause(err)
	case errors.Is(err, ErrMissingToken),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenRevoked):
		return fault.Unauthorized("invalid credentials").WithCause(err)
	default:
		return fault.Unavailable("service unavailable").WithCause(err)
	}
}
