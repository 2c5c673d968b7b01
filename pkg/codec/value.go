package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Kind identifies the variant stored in a Value.
type Kind uint8

// The closed set of variants a Value can hold. Values are trees by
// construction: only KindArray and KindMap recurse, and they recurse
// through freshly built Values, so cycles are impossible.
const (
	KindAbsent Kind = iota
	KindBool
	KindInteger
	KindDouble
	KindFloat
	KindString
	KindBytes
	KindArray
	KindMap
	KindJSON
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindBool:
		return "bool"
	case KindInteger:
		return "integer"
	case KindDouble:
		return "double"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindJSON:
		return "json"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is the universal storage representation every flag value is boxed
// into before it crosses a provider boundary. It is a tagged union over a
// small closed set of variants; providers persist their own native
// representation derived from it and rebuild it on the way out.
//
// A Value is constructed transiently during a single lookup or store call
// and is never retained by the core.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	data []byte
	arr  []Value
	m    map[string]Value
	raw  json.RawMessage
}

// Absent returns the null/no-value variant.
func Absent() Value { return Value{kind: KindAbsent} }

// BoolValue boxes a boolean.
func BoolValue(v bool) Value { return Value{kind: KindBool, b: v} }

// IntValue boxes an integer. All fixed-width integer types normalize
// through this single variant.
func IntValue(v int64) Value { return Value{kind: KindInteger, i: v} }

// DoubleValue boxes a double-precision float.
func DoubleValue(v float64) Value { return Value{kind: KindDouble, f: v} }

// FloatValue boxes a single-precision float.
func FloatValue(v float32) Value { return Value{kind: KindFloat, f: float64(v)} }

// StringValue boxes a string.
func StringValue(v string) Value { return Value{kind: KindString, s: v} }

// BytesValue boxes an opaque byte blob.
func BytesValue(v []byte) Value { return Value{kind: KindBytes, data: v} }

// ArrayValue boxes an ordered list of Values.
func ArrayValue(items ...Value) Value { return Value{kind: KindArray, arr: items} }

// MapValue boxes a string-keyed map of Values. Insertion order is not
// significant.
func MapValue(m map[string]Value) Value { return Value{kind: KindMap, m: m} }

// JSONValue boxes an opaque, already-serialized JSON document.
func JSONValue(raw json.RawMessage) Value { return Value{kind: KindJSON, raw: raw} }

// Kind reports which variant the value holds.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether the value holds no payload at all.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// AsBool unboxes the boolean variant.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsInt unboxes the integer variant.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInteger {
		return 0, false
	}
	return v.i, true
}

// AsFloat unboxes either floating-point variant. The two variants
// interconvert losslessly because the single-precision payload is widened
// on the way in.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindDouble && v.kind != KindFloat {
		return 0, false
	}
	return v.f, true
}

// AsString unboxes the string variant.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// AsBytes unboxes the byte-blob variant.
func (v Value) AsBytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	return v.data, true
}

// AsArray unboxes the array variant.
func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

// AsMap unboxes the map variant.
func (v Value) AsMap() (map[string]Value, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.m, true
}

// AsJSON unboxes the opaque-JSON variant.
func (v Value) AsJSON() (json.RawMessage, bool) {
	if v.kind != KindJSON {
		return nil, false
	}
	return v.raw, true
}

// Clone returns a deep copy. Container payloads are copied recursively so
// callers can hand Values across provider boundaries without aliasing.
func (v Value) Clone() Value {
	switch v.kind {
	case KindBytes:
		return BytesValue(bytes.Clone(v.data))
	case KindJSON:
		return JSONValue(bytes.Clone(v.raw))
	case KindArray:
		items := make([]Value, len(v.arr))
		for i, item := range v.arr {
			items[i] = item.Clone()
		}
		return Value{kind: KindArray, arr: items}
	case KindMap:
		m := make(map[string]Value, len(v.m))
		for k, item := range v.m {
			m[k] = item.Clone()
		}
		return Value{kind: KindMap, m: m}
	default:
		return v
	}
}

// Equal reports deep structural equality between two values.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindAbsent:
		return true
	case KindBool:
		return v.b == other.b
	case KindInteger:
		return v.i == other.i
	case KindDouble, KindFloat:
		return v.f == other.f
	case KindString:
		return v.s == other.s
	case KindBytes:
		return bytes.Equal(v.data, other.data)
	case KindJSON:
		return bytes.Equal(v.raw, other.raw)
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(other.m) {
			return false
		}
		for k, item := range v.m {
			o, ok := other.m[k]
			if !ok || !item.Equal(o) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// MarshalJSON serializes the value using its natural JSON shape: absent
// becomes null, byte blobs become base64 strings, the opaque-JSON variant
// is emitted verbatim.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindAbsent:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindInteger:
		return json.Marshal(v.i)
	case KindDouble, KindFloat:
		return json.Marshal(v.f)
	case KindString:
		return json.Marshal(v.s)
	case KindBytes:
		return json.Marshal(base64.StdEncoding.EncodeToString(v.data))
	case KindArray:
		return json.Marshal(v.arr)
	case KindMap:
		return json.Marshal(v.m)
	case KindJSON:
		if len(v.raw) == 0 {
			return []byte("null"), nil
		}
		return v.raw, nil
	default:
		return nil, fmt.Errorf("codec: cannot marshal %s value", v.kind)
	}
}

// UnmarshalJSON rebuilds a value from its JSON serialization. Numbers
// without a fractional part become the integer variant, everything else
// becomes a double; strings stay strings even when they look like base64,
// so blob round-trips rely on the bytes codec accepting base64 strings.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := FromJSON(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// FromJSON parses a JSON document into a Value tree.
func FromJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var parsed any
	if err := dec.Decode(&parsed); err != nil {
		return Absent(), fmt.Errorf("codec: invalid json: %w", err)
	}
	return FromAny(parsed), nil
}

// FromAny translates a dynamically typed value, such as the map[string]any
// trees produced by JSON and YAML parsers, into a Value. Unrecognized
// types are serialized through encoding/json and boxed as the opaque-JSON
// variant; if even that fails the result is absent.
func FromAny(in any) Value {
	switch t := in.(type) {
	case nil:
		return Absent()
	case Value:
		return t
	case bool:
		return BoolValue(t)
	case int:
		return IntValue(int64(t))
	case int8:
		return IntValue(int64(t))
	case int16:
		return IntValue(int64(t))
	case int32:
		return IntValue(int64(t))
	case int64:
		return IntValue(t)
	case uint:
		return IntValue(int64(t))
	case uint8:
		return IntValue(int64(t))
	case uint16:
		return IntValue(int64(t))
	case uint32:
		return IntValue(int64(t))
	case uint64:
		return IntValue(int64(t))
	case float32:
		return FloatValue(t)
	case float64:
		return DoubleValue(t)
	case string:
		return StringValue(t)
	case []byte:
		return BytesValue(t)
	case json.Number:
		if !strings.ContainsAny(t.String(), ".eE") {
			if i, err := t.Int64(); err == nil {
				return IntValue(i)
			}
		}
		if f, err := t.Float64(); err == nil {
			return DoubleValue(f)
		}
		return StringValue(t.String())
	case json.RawMessage:
		return JSONValue(t)
	case []any:
		items := make([]Value, 0, len(t))
		for _, item := range t {
			items = append(items, FromAny(item))
		}
		return Value{kind: KindArray, arr: items}
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, item := range t {
			m[k] = FromAny(item)
		}
		return MapValue(m)
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return Absent()
		}
		return JSONValue(raw)
	}
}

// ToAny translates a Value back into the dynamically typed shape document
// writers expect. It is the inverse of FromAny up to numeric widening.
func (v Value) ToAny() any {
	switch v.kind {
	case KindAbsent:
		return nil
	case KindBool:
		return v.b
	case KindInteger:
		return v.i
	case KindDouble, KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBytes:
		return base64.StdEncoding.EncodeToString(v.data)
	case KindArray:
		items := make([]any, len(v.arr))
		for i, item := range v.arr {
			items[i] = item.ToAny()
		}
		return items
	case KindMap:
		m := make(map[string]any, len(v.m))
		for k, item := range v.m {
			m[k] = item.ToAny()
		}
		return m
	case KindJSON:
		var out any
		if err := json.Unmarshal(v.raw, &out); err != nil {
			return nil
		}
		return out
	default:
		return nil
	}
}
