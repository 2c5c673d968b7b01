// Package providers ships the reference storage backends for the flags
// package: the concrete ends of a provider chain that the core
// deliberately knows nothing about.
//
// # Backends
//
// Memory - a writable in-process store for tests, runtime overrides, and
// chain-terminating defaults.
//
// Env - a read-only view of the process environment; composed keys map to
// SCREAMING_SNAKE variable names and raw values are parsed as JSON with a
// plain-string fallback.
//
// File - a writable YAML or JSON document whose nesting mirrors the key
// hierarchy; supports change watching through fsnotify with debounce.
//
// Redis - a writable remote store; values are stored as JSON under a
// namespace prefix and changes are broadcast over pub/sub.
//
// Delegate - forwards lookup/store/reset to caller-supplied functions for
// everything in between.
//
// # A typical chain
//
//	remote, err := providers.NewRedisFromEnv(ctx)
//	if err != nil { ... }
//	local, err := providers.NewFile("flags.yaml")
//	if err != nil { ... }
//	envp, err := providers.NewEnv(providers.WithEnvPrefix("myApp"))
//	if err != nil { ... }
//
//	loader, err := flags.NewLoader(root,
//		flags.WithProviders(remote, local, envp, providers.NewMemory()),
//	)
//
// Resolution consults the chain in order, so the remote store wins over
// the local file, which wins over the environment, which wins over any
// runtime overrides; a flag's declared default backstops them all.
//
// # Storage layout
//
// Each provider persists its own native representation of the boxed value
// it is handed; no wire or file format is shared between backends, and
// none is prescribed by the core.
package providers
