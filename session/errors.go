package session

import "errors"

var (
	// ErrClosed is returned by commands sent after Run has returned.
	ErrClosed = errors.New("session: closed")

	// ErrMissingField is returned when a required entry field is empty.
	ErrMissingField = errors.New("session: missing required field")

	// ErrNoStore is returned by Restore when the session has no draft store.
	ErrNoStore = errors.New("session: no draft store")
)
