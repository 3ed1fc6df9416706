// Package auth provides the hub's bearer-credential check.
// WHY: Every handler needs a consistent, constant-time way to validate the
// shared secret; centralizing it here prevents each handler from rolling
// its own (inconsistent, possibly timing-unsafe) comparison.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// ValidateToken compares an expected secret against a provided one in
// constant time.
//
// WHY constant-time comparison: a naive == short-circuits on the first
// mismatched byte, letting an attacker reconstruct the secret one byte at a
// time by measuring response latency across many guesses ("timing attack").
// crypto/subtle.ConstantTimeCompare takes the same time regardless of where
// (or whether) the strings differ, closing that side channel.
func ValidateToken(expected, provided string) bool {
	if expected == "" || provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) == 1
}

// ExtractBearerToken retrieves the credential from the standard
// `Authorization: Bearer <token>` header.
func ExtractBearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(h, prefix) {
		return strings.TrimPrefix(h, prefix)
	}
	return ""
}

// ExtractQueryToken retrieves the credential from the `api-key` URL query
// parameter.
//
// WHY a query-parameter fallback: browsers cannot attach custom headers to
// a WebSocket upgrade request, so `?api-key=<secret>` is accepted as an
// equivalent credential for the `/api/clip-sync/{device_id}` upgrade.
func ExtractQueryToken(r *http.Request) string {
	return r.URL.Query().Get("api-key")
}

// Authenticate reports whether r carries a valid credential for the given
// secret. An empty secret means auth is disabled entirely: any request is
// accepted. Otherwise the Authorization header is checked first, falling
// back to the `api-key` query parameter.
func Authenticate(r *http.Request, secret string) bool {
	if secret == "" {
		return true
	}
	if token := ExtractBearerToken(r); token != "" {
		return ValidateToken(secret, token)
	}
	if token := ExtractQueryToken(r); token != "" {
		return ValidateToken(secret, token)
	}
	return false
}
