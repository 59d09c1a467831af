// Package ratelimit provides tiered request rate limiting over the kv
// facade.
//
// The primary style is sliding-window-by-truncation: one counter per
// identity per tier, incremented with the window TTL, rejecting with 429 and
// Retry-After once the budget is spent. Exhaustion can escalate into a block
// flag that short-circuits requests without touching the counter, and a
// strict-auth mode feeds repeated 401/403 outcomes into a separate counter
// that blocks faster than the raw request-rate tier would.
//
// Two token-bucket variants exist for burst tolerance: TokenBucket persists
// its state in the shared store, LocalLimiter keeps per-identity buckets in
// process memory.
package ratelimit
