// Package api implements the paranote REST API using chi.
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// tokenParam carries the token for clients that cannot set headers, such
// as a browser EventSource subscribed to /events.
const tokenParam = "access_token"

// AuthMiddleware rejects requests without the shared token. When enabled is
// false every request passes. The token is read from an
// "Authorization: Bearer" header, falling back to the access_token query
// parameter on GET requests.
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			given, ok := requestToken(r)
			if !ok || subtle.ConstantTimeCompare([]byte(given), want) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="paranote"`)
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestToken(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		return strings.CutPrefix(auth, "Bearer ")
	}
	if r.Method == http.MethodGet {
		if t := r.URL.Query().Get(tokenParam); t != "" {
			return t, true
		}
	}
	return "", false
}
