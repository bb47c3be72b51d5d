package character

import "errors"

var (
	// ErrNotFound means no character matched the requested name.
	ErrNotFound        = errors.New("character not found")
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrStorageFailure wraps any fault raised by the graph store.
	ErrStorageFailure = errors.New("storage failure")
)
