package auth

import "errors"

var (
	// ErrInvalidCredentials is returned by ValidateCredentials/ResolveUser
	// on a bad email/password pair. Deliberately undifferentiated (never
	// "user not found" vs "wrong password") to avoid leaking which part
	// was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned when a bearer token doesn't resolve to
	// any AuthToken row.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token exists but its
	// ExpiresAt has passed.
	ErrTokenExpired = errors.New("token expired")
)
