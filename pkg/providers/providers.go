package providers

import "github.com/flagkit/flagkit/pkg/flags"

// Compile-time contract checks.
var (
	_ flags.Provider = (*Memory)(nil)
	_ flags.Watcher  = (*Memory)(nil)
	_ flags.Provider = (*Env)(nil)
	_ flags.Provider = (*File)(nil)
	_ flags.Watcher  = (*File)(nil)
	_ flags.Provider = (*Redis)(nil)
	_ flags.Watcher  = (*Redis)(nil)
	_ flags.Provider = (*Delegate)(nil)
)
