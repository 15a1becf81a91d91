package session

import "errors"

var (
	ErrNotFound      = errors.New("session not found")
	ErrAlreadyExists = errors.New("session already exists")
)

// Session binds a live connection to a room. It is written once at
// join time and never mutated; the host flag in particular is fixed
// for the lifetime of the connection.
type Session struct {
	ID       string
	RoomID   string
	Username string
	IsHost   bool
}
