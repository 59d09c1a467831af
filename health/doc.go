// Package health provides readiness checks for the core's dependencies:
// the shared key-value store and the per-repository circuit breakers.
package health
