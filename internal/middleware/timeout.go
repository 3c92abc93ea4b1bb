package middleware

import (
	"context"
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds webhook handling. Transitions are quick;
// a slow database should fail the request, not pile up connections.
const DefaultRequestTimeout = 30 * time.Second

// Timeout enforces a deadline on request handlers.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			r = r.WithContext(ctx)
			http.TimeoutHandler(next, timeout, "Request Timeout").ServeHTTP(w, r)
		})
	}
}
