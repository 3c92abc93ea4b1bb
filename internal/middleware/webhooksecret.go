package middleware

import (
	"crypto/subtle"
	"net/http"
)

// SecretHeader is the header the chat platform echoes back on webhook
// calls when a secret token is configured.
const SecretHeader = "X-Webhook-Secret-Token"

// WebhookSecret rejects requests whose secret header does not match.
// The comparison is constant time.
func WebhookSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(SecretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
