package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/campuskit/campuskit/fault"
	"github.com/campuskit/campuskit/token"
)

// FailureMode decides what happens when the limiter backend is unreachable.
type FailureMode string

const (
	// FailOpen lets requests through when the backend errors.
	FailOpen FailureMode = "fail_open"
	// FailClosed rejects requests when the backend errors.
	FailClosed FailureMode = "fail_closed"
)

// Logger is the subset of the observe logger the middleware needs.
type Logger interface {
	Warn(ctx context.Context, msg string, fields ...any)
}

// MiddlewareConfig configures the HTTP middleware for one tier.
type MiddlewareConfig struct {
	// Mode is the backend failure mode.
	// Default: FailClosed
	Mode FailureMode

	// Logger receives backend failure warnings. Optional.
	Logger Logger
}

// Middleware returns an http middleware enforcing the limiter's tier.
//
// Every request passes through the counter before reaching the handler; 429
// responses always carry Retry-After. When the limiter's StrictAuthConfig is
// enabled the handler's outcome is inspected after it completes and 401/403
// statuses feed the escalation counter. The outcome check is an explicit post-handler stage
// over a status-recording ResponseWriter, not a patched response method.
func Middleware(l *Limiter, config MiddlewareConfig) func(http.Handler) http.Handler {
	if config.Mode == "" {
		config.Mode = FailClosed
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := l.tier.Identity(r)

			decision, err := l.Check(r.Context(), identity)
			if err != nil {
				if config.Mode == FailOpen {
					if config.Logger != nil {
						config.Logger.Warn(r.Context(), "rate limiter backend unavailable, allowing request",
							"prefix", l.tier.KeyPrefix, "error", err.Error())
					}
					next.ServeHTTP(w, r)
					return
				}
				fault.WriteRateLimited(w, l.tier.Message, l.tier.Window)
				return
			}
			if !decision.Allowed {
				fault.WriteRateLimited(w, l.tier.Message, decision.RetryAfter)
				return
			}

			if !l.strict.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			if rec.status == http.StatusUnauthorized || rec.status == http.StatusForbidden {
				if err := l.RecordAuthFailure(r.Context(), identity); err != nil && config.Logger != nil {
					config.Logger.Warn(r.Context(), "auth failure escalation write failed",
						"prefix", l.tier.KeyPrefix, "error", err.Error())
				}
			}
		})
	}
}

// statusRecorder captures the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// PrincipalOrIP returns an identity function that uses the authenticated
// principal from the request context when present and the client IP
// otherwise.
func PrincipalOrIP(trustForwardedFor bool) func(r *http.Request) string {
	ipFn := ClientIP(trustForwardedFor)
	return func(r *http.Request) string {
		if principal := token.PrincipalFromContext(r.Context()); principal != "" {
			return "u:" + principal
		}
		return ipFn(r)
	}
}

// ClientIP returns an identity function based on the client address. With
// trustForwardedFor set, the first entry of X-Forwarded-For wins.
func ClientIP(trustForwardedFor bool) func(r *http.Request) string {
	return func(r *http.Request) string {
		if trustForwardedFor {
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
					return ip
				}
			}
		}
		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}
