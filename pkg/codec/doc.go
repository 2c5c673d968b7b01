// Package codec defines the tagged-value encoding every flag value passes
// through on its way to and from a storage backend.
//
// The package is built around two types:
//
// 1. Value - a closed tagged union over the storage-transportable variants
// (absent, bool, integer, double, float, string, bytes, array, map, and
// opaque JSON)
// 2. Codec - a generic, per-native-type bidirectional mapping between a Go
// value and a Value
//
// Providers only ever see Values, so arbitrary native types (booleans,
// numerics, strings, timestamps, URLs, slices, maps, backed enums,
// optionals, and JSON-codable structs) can be boxed losslessly into a
// representation any backend can persist in its own format.
//
// # Usage
//
// Codecs for builtin types are obtained from their constructors:
//
//	c := codec.Int[int]()
//	boxed := c.Encode(42)
//	n, ok := c.Decode(boxed) // 42, true
//
// Composite codecs recurse through an element codec:
//
//	c := codec.Array(codec.String[string]())
//
// Auto resolves the right codec for a type parameter, falling back to the
// generic JSON codec for structured types:
//
//	type Theme struct {
//		Accent string `json:"accent"`
//	}
//	c := codec.Auto[Theme]() // JSON fallback
//
// # Decode semantics
//
// Decode is partial: it reports false instead of returning an error so
// that a stored value of the wrong shape behaves exactly like a missing
// value and resolution falls through to the next backend. Numeric
// codecs accept a few deliberate coercions (bool as 0/1, numeric strings)
// because common backends, environment variables in particular, can only
// store strings.
//
// Container codecs compact away elements that fail to decode rather than
// failing the whole container, and the Pointer codec treats an element
// decode failure as "no value". Both policies are documented on the
// respective constructors.
package codec
