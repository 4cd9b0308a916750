// Package auth is the GReader wire layer for C9: ClientLogin, the token
// endpoint, and the GoogleLogin bearer-token middleware. Grounded on the
// teacher's internal/handler/http/auth package shape (public-endpoint
// allowlist, middleware wrapping a context key, Prometheus request
// metrics) with the JWT/role mechanics replaced by
// internal/service/auth's Store-backed token issuance, since GReader's
// wire contract (GoogleLogin header, SID=/Auth= body) has no JWT
// equivalent.
package auth

import "strings"

// PublicPaths lists the GReader endpoints reachable without a token.
// Only the login endpoint is public; every other reader/api/0/* path
// requires a resolved user (spec.md §4.9).
var PublicPaths = []string{
	"/accounts/ClientLogin",
}

// IsPublicEndpoint reports whether path can be reached without
// authentication.
func IsPublicEndpoint(path string) bool {
	for _, p := range PublicPaths {
		if path == p || strings.HasPrefix(path, p+"?") {
			return true
		}
	}
	return false
}
