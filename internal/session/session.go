// Package session provides server-side session management. Sessions live in
// a process-local store keyed by an opaque id; the client holds only a signed
// token, so a restart logs everyone out but no credential ever leaves the
// server.
package session

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no session exists for a token.
	ErrNotFound = errors.New("session not found")
	// ErrExpired is returned when a session has passed its deadline.
	ErrExpired = errors.New("session expired")
	// ErrInvalidToken is returned when a token is malformed or its
	// signature does not verify.
	ErrInvalidToken = errors.New("invalid session token")
)

// Session binds an opaque id to an authenticated user.
type Session struct {
	ID        string
	UserID    int64
	UserName  string
	CreatedAt time.Time
	ExpiresAt time.Time
}
