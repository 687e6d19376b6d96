package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Gate decides whether a request may use the admin surface. The pipeline
// only consumes the yes/no answer; how credentials are issued is the admin
// UI's concern.
type Gate interface {
	Authorize(r *http.Request) bool
}

// TokenGate authorizes requests carrying the configured admin token, either
// as a bearer token or in the X-Admin-Token header.
type TokenGate struct {
	token string
}

// NewTokenGate creates a gate for the configured token. An empty token
// denies all admin requests.
func NewTokenGate(token string) TokenGate {
	return TokenGate{token: token}
}

func (g TokenGate) Authorize(r *http.Request) bool {
	if g.token == "" {
		return false
	}

	candidate := strings.TrimSpace(r.Header.Get("X-Admin-Token"))
	if candidate == "" {
		header := r.Header.Get("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			candidate = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		}
	}
	if candidate == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(candidate), []byte(g.token)) == 1
}

// Middleware rejects unauthorized requests with 401 before they reach the
// admin handlers.
func Middleware(gate Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !gate.Authorize(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
