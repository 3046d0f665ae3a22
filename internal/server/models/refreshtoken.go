package models

import "time"

// RefreshToken is an opaque long-lived token that can be exchanged for a new
// access token until it expires or is revoked by logout.
type RefreshToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is past its expiry.
func (t *RefreshToken) Expired() bool {
	return time.Now().After(t.ExpiresAt)
}
