// Package kv provides a uniform key-value facade over a shared store with
// per-key TTLs.
//
// It offers get/set/increment/lock/pattern-delete operations with Redis and
// in-memory implementations. Values are opaque bytes; serialization belongs
// to the caller. The facade carries no retry or circuit-breaker policy of its
// own; compose it with the resilience package where that matters.
//
// Lifecycle is explicit: NewRedis dials and pings, Close disconnects. There
// are no import-time singletons.
package kv
