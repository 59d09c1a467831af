// Package observe wires structured logging, tracing, and metrics for the
// resilience and caching core.
//
// The Observer bundles an OpenTelemetry tracer and meter with a JSON line
// logger behind one Config. Subsystems can be enabled independently; a
// disabled subsystem is backed by a no-op implementation so call sites
// never branch on configuration.
//
// The Logger takes alternating key/value field pairs. Values for
// credential-bearing keys (token, password, secret and friends) are
// redacted before serialization.
package observe
