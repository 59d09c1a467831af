// Package token manages the lifecycle of the platform's three token kinds.
//
// Access tokens are stateless JWTs validated by signature and expiry only.
// Refresh tokens pair a JWT with a record under refresh:<jti> in the kv
// store: the record's existence is what makes the token valid, so rotation
// and logout revoke by deleting it. Verify tokens (email confirmation,
// password reset) keep their sensitive payload in the store under
// verify:<jti> and are consumed exactly once via an atomic read-and-delete,
// leaving a tombstone that makes replays detectable.
package token
