package model

import "time"

// Session is server-side login state. Token is the opaque id the client
// holds (inside a signed cookie); UserID is who it authenticates.
type Session struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
