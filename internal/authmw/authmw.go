// Package authmw provides HTTP middleware for bearer token authentication.
package authmw

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// BearerToken returns middleware that validates the request carries the
// expected token, either in the Authorization header or, for clients that
// cannot set headers (browser WebSocket connections to the trace stream),
// in the access_token query parameter (RFC 6750 §2.3). Comparison uses
// constant-time equality to prevent timing side-channel attacks.
func BearerToken(token string) func(http.Handler) http.Handler {
	expected := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := requestToken(r)
			if !ok {
				unauthorized(w, `{"error":"missing or malformed credentials"}`)
				return
			}

			if subtle.ConstantTimeCompare([]byte(got), expected) != 1 {
				unauthorized(w, `{"error":"invalid token"}`)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// requestToken extracts the presented token. The Authorization header wins
// over the query parameter when both are present.
func requestToken(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if !strings.HasPrefix(auth, "Bearer ") {
			return "", false
		}
		return auth[len("Bearer "):], true
	}
	if qt := r.URL.Query().Get("access_token"); qt != "" {
		return qt, true
	}
	return "", false
}

func unauthorized(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="warden"`)
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(body + "\n"))
}
