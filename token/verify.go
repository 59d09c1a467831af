package token

import (
	"context"
	"encoding/json"
	"time"

	"github.com/campuskit/campuskit/kv"
)

// Purpose is the intent carried by a verify token.
type Purpose string

const (
	PurposeEmailConfirm  Purpose = "email-confirm"
	PurposePasswordReset Purpose = "password-reset"
)

// VerifyPayload is the sensitive half of a verify token. It never rides in
// the JWT; it lives in the store under verify:<jti> for the token's
// 15-minute lifetime.
type VerifyPayload struct {
	Email        string  `json:"email"`
	PasswordHash string  `json:"password_hash,omitempty"`
	Role         string  `json:"role,omitempty"`
	Purpose      Purpose `json:"purpose"`
}

func verifyKey(jti string) string {
	return kv.Key("verify", jti)
}

func usedKey(jti string) string {
	return kv.Key("used", jti)
}

// IssueVerifyToken issues a single-use token for email confirmation or
// password reset. The JWT carries only {sub, jti, purpose}; the sensitive
// payload is stored separately.
func (m *Manager) IssueVerifyToken(ctx context.Context, payload VerifyPayload) (string, error) {
	now := time.Now().UTC()
	exp := now.Add(m.config.VerifyTTL)

	signed, jti, err := m.sign(claims{Kind: KindVerify, Purpose: string(payload.Purpose)}, payload.Email, now, exp)
	if err != nil {
		return "", err
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, verifyKey(jti), b, m.config.VerifyTTL); err != nil {
		return "", err
	}
	return signed, nil
}

// ConsumeVerifyToken validates and consumes a verify token exactly once.
//
// The payload record is read-and-deleted atomically, so at most one caller
// ever sees it. A tombstone under used:<jti> then makes a replay
// distinguishable from "never existed" even after the record's natural TTL
// would have lapsed mid-race.
func (m *Manager) ConsumeVerifyToken(ctx context.Context, raw string, purpose Purpose) (VerifyPayload, error) {
	cl, err := m.parse(raw, KindVerify)
	if err != nil {
		return VerifyPayload{}, err
	}
	if cl.Purpose != string(purpose) {
		return VerifyPayload{}, ErrInvalidToken
	}

	used, err := m.store.Exists(ctx, usedKey(cl.ID))
	if err != nil {
		return VerifyPayload{}, err
	}
	if used {
		return VerifyPayload{}, ErrTokenUsed
	}

	b, ok, err := m.store.ConsumeOnce(ctx, verifyKey(cl.ID))
	if err != nil {
		return VerifyPayload{}, err
	}
	if !ok {
		return VerifyPayload{}, ErrInvalidToken
	}

	var payload VerifyPayload
	if err := json.Unmarshal(b, &payload); err != nil {
		return VerifyPayload{}, err
	}
	if payload.Purpose != purpose || payload.Email != cl.Subject {
		return VerifyPayload{}, ErrInvalidToken
	}

	if err := m.store.Set(ctx, usedKey(cl.ID), []byte("1"), m.config.TombstoneTTL); err != nil {
		return VerifyPayload{}, err
	}
	return payload, nil
}
