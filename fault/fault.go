package fault

import (
	"errors"
	"fmt"
	"net/http"
)

// Class is a closed enumeration of fault categories.
//
// Persistence adapters map their driver-specific errors into a Class at
// their boundary, so nothing above them ever pattern-matches on
// library-specific error shapes.
type Class int

const (
	// ClassUnknown is an unclassified error. Never retried.
	ClassUnknown Class = iota
	// ClassConnection covers connection and initialization errors. Retryable.
	ClassConnection
	// ClassLockContention covers deadlock and lock-timeout errors. Retryable.
	ClassLockContention
	// ClassBusiness covers deterministic validation and domain errors.
	// Never retried.
	ClassBusiness
)

// String returns the string representation of the class.
func (c Class) String() string {
	switch c {
	case ClassConnection:
		return "connection"
	case ClassLockContention:
		return "lock-contention"
	case ClassBusiness:
		return "business"
	default:
		return "unknown"
	}
}

// Retryable reports whether faults of this class may be retried.
func (c Class) Retryable() bool {
	return c == ClassConnection || c == ClassLockContention
}

// Fault is a typed error carrying an HTTP-style status, a stable code, and a
// user-safe message. It is the uniform failure contract exposed to the
// transport layer.
type Fault struct {
	// Status is the HTTP status code this fault maps to.
	Status int

	// Code is a stable machine-readable identifier.
	Code string

	// Message is safe to return to the client.
	Message string

	// Class categorizes the fault for retry decisions.
	Class Class

	// Err is the underlying cause, never exposed to clients.
	Err error
}

// Error implements the error interface.
func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("fault: %s: %s: %v", f.Code, f.Message, f.Err)
	}
	return fmt.Sprintf("fault: %s: %s", f.Code, f.Message)
}

// Unwrap returns the underlying cause.
func (f *Fault) Unwrap() error {
	return f.Err
}

// WithCause attaches an underlying cause and returns the fault.
func (f *Fault) WithCause(err error) *Fault {
	f.Err = err
	return f
}

// Constructors for the fault taxonomy.

// BadRequest creates a 400 fault.
func BadRequest(message string) *Fault {
	return &Fault{Status: http.StatusBadRequest, Code: "BAD_REQUEST", Message: message, Class: ClassBusiness}
}

// Unauthorized creates a 401 fault. The message never distinguishes a missing
// account from a wrong password.
func Unauthorized(message string) *Fault {
	return &Fault{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: message, Class: ClassBusiness}
}

// Forbidden creates a 403 fault.
func Forbidden(message string) *Fault {
	return &Fault{Status: http.StatusForbidden, Code: "FORBIDDEN", Message: message, Class: ClassBusiness}
}

// NotFound creates a 404 fault.
func NotFound(message string) *Fault {
	return &Fault{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: message, Class: ClassBusiness}
}

// Conflict creates a 409 fault.
func Conflict(message string) *Fault {
	return &Fault{Status: http.StatusConflict, Code: "CONFLICT", Message: message, Class: ClassBusiness}
}

// TooManyRequests creates a 429 fault.
func TooManyRequests(message string) *Fault {
	return &Fault{Status: http.StatusTooManyRequests, Code: "RATE_LIMITED", Message: message, Class: ClassBusiness}
}

// Unavailable creates a 503 fault for transient infrastructure trouble.
func Unavailable(message string) *Fault {
	return &Fault{Status: http.StatusServiceUnavailable, Code: "SERVICE_UNAVAILABLE", Message: message, Class: ClassConnection}
}

// Connection marks err as a retryable connection/initialization fault.
func Connection(err error) *Fault {
	return &Fault{Status: http.StatusServiceUnavailable, Code: "SERVICE_UNAVAILABLE", Message: "service unavailable", Class: ClassConnection, Err: err}
}

// LockContention marks err as a retryable deadlock/lock-timeout fault.
func LockContention(err error) *Fault {
	return &Fault{Status: http.StatusServiceUnavailable, Code: "SERVICE_UNAVAILABLE", Message: "service unavailable", Class: ClassLockContention, Err: err}
}

// ClassOf returns the class of an error. Errors that are not Faults are
// ClassUnknown.
func ClassOf(err error) Class {
	var f *Fault
	if errors.As(err, &f) {
		return f.Class
	}
	return ClassUnknown
}

// IsRetryable reports whether the error belongs to the retryable allow-list.
// It is the RetryIf function wired into resilience executors.
func IsRetryable(err error) bool {
	return ClassOf(err).Retryable()
}

// As extracts a Fault from an error chain.
func As(err error) (*Fault, bool) {
	var f *Fault
	ok := errors.As(err, &f)
	return f, ok
}
