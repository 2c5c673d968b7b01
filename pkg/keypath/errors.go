package keypath

import "errors"

// Predefined errors for the keypath package.
var (
	// ErrEmptyKey indicates that every segment of a path was skipped or
	// empty, leaving nothing to address a stored value with.
	ErrEmptyKey = errors.New("keypath: path composed to an empty key")
)
