// Package flags provides strongly-typed, hierarchically-namespaced
// feature flags resolved at read time from an ordered chain of storage
// backends with a guaranteed fallback.
//
// # Architecture
//
// The package is built around four core concepts:
//
// 1. Flags - typed declared values with a default, an optional computed
// override, and an optional provider exclusion list
// 2. Collections - named, nestable groups of flags that contribute path
// segments to each flag's storage key
// 3. Providers - storage backends implementing lookup/store/reset over
// fully-qualified keys
// 4. Loaders - the binding of one collection tree to an ordered provider
// chain and a root key configuration
//
// Registration is explicit: flags and nested collections join the tree
// through Collection.Add, and NewLoader performs a one-time wiring pass
// that hands every node its accumulated path segments and validates the
// composed keys. There is no reflection and no code generation; callers
// keep the typed *Flag[V] handle returned by New and resolve through it.
//
// # Usage
//
//	showSocialLogin := flags.New("showSocialLogin", true)
//	ratingMode := flags.New("ratingMode", "at_launch",
//		flags.WithFixedKey[string]("rating_mode"),
//	)
//
//	ui := flags.NewCollection("userInterface").Add(showSocialLogin)
//	root := flags.NewCollection("features").Add(ui, ratingMode)
//
//	loader, err := flags.NewLoader(root,
//		flags.WithProviders(remote, local, defaults),
//		flags.WithKeyConfig(keypath.Config{Transform: keypath.TransformKebab}),
//	)
//	if err != nil {
//		// a wiring error is a configuration bug; fail startup
//	}
//
//	enabled := showSocialLogin.Value(ctx)
//
// # Resolution
//
// Resolve walks a fixed state machine: the computed override first (a hit
// short-circuits everything, providers are never queried), then the
// provider chain in order with strict first-match-wins, then the default.
// A stored value whose shape does not match the flag's type folds into a
// miss, so resolution can never fail; flags always produce some value.
//
// Writes fan out to a caller-chosen provider subset and report which
// providers accepted; resets clear every writable provider. In both cases
// one provider's failure never aborts the attempt on its siblings, and
// per-provider failures are aggregated with errors.Join.
//
// # Concurrency
//
// Every operation executes synchronously on the caller's goroutine; the
// core holds no locks beyond each flag's default cell and performs no
// caching, so staleness is bounded only by each provider's own
// consistency. Providers may optionally expose change streams through the
// Watcher capability, which Loader.Watch fans into a single channel.
package flags
