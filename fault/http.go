package fault

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// Logger is the subset of the observe logger the boundary writer needs.
type Logger interface {
	Error(ctx context.Context, msg string, fields ...any)
}

type body struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError translates an error into the JSON fault body at the HTTP
// boundary.
//
// Faults map 1:1 to their status code and message. Anything else is treated
// as unexpected: logged with full context if a logger is provided, then
// flattened to a generic 500 so internal details never leak to the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger Logger) {
	f, ok := As(err)
	if !ok {
		if logger != nil {
			logger.Error(r.Context(), "unexpected error at boundary",
				"method", r.Method, "path", r.URL.Path, "error", err.Error())
		}
		f = &Fault{Status: http.StatusInternalServerError, Code: "INTERNAL", Message: "internal server error"}
	}

	Write(w, f)
}

// Write writes a fault as JSON with its status code.
func Write(w http.ResponseWriter, f *Fault) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.Status)
	_ = json.NewEncoder(w).Encode(body{Error: f.Code, Message: f.Message})
}

// WriteRateLimited writes a 429 fault with the Retry-After header set.
// Retry-After is always present on 429 responses.
func WriteRateLimited(w http.ResponseWriter, message string, retryAfter time.Duration) {
	seconds := int(retryAfter.Round(time.Second).Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	if message == "" {
		message = "too many requests"
	}
	Write(w, TooManyRequests(message))
}
