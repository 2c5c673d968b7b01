package flags

import "errors"

// Predefined errors for the flags package.
var (
	// ErrNilCollection indicates a loader was constructed without a root
	// collection.
	ErrNilCollection = errors.New("flags: root collection is nil")

	// ErrAlreadyWired indicates a collection tree was handed to a second
	// loader; a tree is wired exactly once.
	ErrAlreadyWired = errors.New("flags: collection tree already wired")

	// ErrEmptyName indicates a flag or collection was declared without a
	// name.
	ErrEmptyName = errors.New("flags: node name cannot be empty")

	// ErrDuplicateKey indicates two flags composed to the same
	// fully-qualified key, which would make stored values ambiguous.
	ErrDuplicateKey = errors.New("flags: duplicate composed key")

	// ErrNotWired indicates an operation that needs a provider chain was
	// invoked on a flag that has no loader.
	ErrNotWired = errors.New("flags: flag is not wired to a loader")

	// ErrUnknownProvider indicates an explicitly requested provider name
	// is not part of the loader's chain.
	ErrUnknownProvider = errors.New("flags: no provider with the requested name")

	// ErrNotWatchable indicates no provider in the chain supports change
	// subscriptions.
	ErrNotWatchable = errors.New("flags: no provider supports watching")

	// ErrLoaderExists indicates a manager already holds a loader under
	// the requested name.
	ErrLoaderExists = errors.New("flags: loader already registered")

	// ErrNilLoader indicates a nil loader was handed to a manager.
	ErrNilLoader = errors.New("flags: loader is nil")
)
