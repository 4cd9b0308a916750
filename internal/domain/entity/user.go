package entity

import "time"

// User is the identity that owns feeds, tokens, and per-article state.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// FeedGroup is a user-owned label. It is the sole mechanism behind GReader
// "labels": a Feed belongs to at most one group.
type FeedGroup struct {
	ID     int64
	UserID int64
	Name   string
}

// AuthToken is a bearer capability issued on login and consulted on every
// authenticated request. It is never mutated after creation.
type AuthToken struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// Valid reports whether the token has not expired.
func (t *AuthToken) Valid(now time.Time) bool {
	return t.ExpiresAt == nil || t.ExpiresAt.After(now)
}
