package providers

import "errors"

// Predefined errors for the providers package.
var (
	// ErrReadOnly indicates a write or reset was attempted on a provider
	// that cannot persist values.
	ErrReadOnly = errors.New("providers: provider is read-only")

	// ErrUnsupportedFormat indicates a file provider path with an
	// extension other than .yaml/.yml/.json.
	ErrUnsupportedFormat = errors.New("providers: unsupported file format")

	// ErrLoadFailed indicates a backing document could not be read or
	// parsed.
	ErrLoadFailed = errors.New("providers: failed to load document")

	// ErrStoreFailed indicates a value could not be persisted.
	ErrStoreFailed = errors.New("providers: failed to store value")

	// ErrEnvFileLoad indicates an explicitly requested dotenv file could
	// not be loaded.
	ErrEnvFileLoad = errors.New("providers: failed to load env file")

	// ErrInvalidRedisURL indicates the redis connection string could not
	// be parsed.
	ErrInvalidRedisURL = errors.New("providers: invalid redis connection URL")

	// ErrRedisNotReady indicates the redis server did not become
	// reachable within the configured retry budget.
	ErrRedisNotReady = errors.New("providers: redis connection not ready")
)
