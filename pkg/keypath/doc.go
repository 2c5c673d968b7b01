// Package keypath composes fully-qualified storage keys from the path
// segments a flag hierarchy accumulates during wiring.
//
// Every flag and every enclosing group contributes one segment. A segment
// carries its raw declared name plus a Strategy that decides how the name
// appears in the final key: inherited from the root transform, forced to
// kebab-case or snake_case, replaced with a fixed custom string, or
// skipped entirely. The root Config adds an optional global prefix and the
// separator used to join everything.
//
//	cfg := keypath.Config{Prefix: "myApp", Transform: keypath.TransformKebab}
//	key, err := keypath.Build(cfg, []keypath.Segment{
//		{Name: "userInterface", Strategy: keypath.Inherit()},
//		{Name: "showSocialLogin", Strategy: keypath.Inherit()},
//	})
//	// key == "my-app/user-interface/show-social-login"
//
// Paths are recomputed from the segment list on every Build call; the
// segment list itself is stable once wiring completes, so callers are free
// to cache the result.
package keypath
