package chat

import "errors"

var (
	// ErrNotFound is returned when a chat or message does not exist.
	ErrNotFound = errors.New("chat: not found")
	// ErrForbidden is returned on ownership or membership violations.
	ErrForbidden = errors.New("chat: forbidden")
	// ErrInvalidInput is returned for missing required fields.
	ErrInvalidInput = errors.New("chat: invalid input")
)
