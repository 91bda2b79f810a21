package user

import "errors"

// Store-level conditions returned by repository implementations.
var (
	// ErrNotFound is returned when no user matches a lookup.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when a write violates the unique email index.
	ErrEmailTaken = errors.New("user email already taken")
)
