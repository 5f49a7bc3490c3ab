package auth

import "errors"

var (
	// ErrValidation marks malformed or missing input. The caller's fault.
	ErrValidation = errors.New("invalid request")
	// ErrConflict marks an email or phone that already belongs to a user.
	ErrConflict = errors.New("already registered")
	// ErrNotFound marks a missing user or missing pending flow state.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCode covers both a wrong and an expired code. The two are
	// deliberately not distinguished so callers cannot probe which it was.
	ErrInvalidCode = errors.New("invalid verification code")
)
