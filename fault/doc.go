// Package fault defines the typed error taxonomy shared by the resilience,
// cache, rate-limit, and token layers.
//
// A Fault carries an HTTP-style status code, a stable code string, a
// client-safe message, and a retry class. Lower layers return undecorated
// errors; persistence adapters classify them at their boundary (Connection,
// LockContention); domain services translate everything into Faults before
// it reaches the transport layer. Errors that escape translation are logged
// and flattened to a generic 500.
package fault
