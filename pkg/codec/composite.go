package codec

import (
	"encoding/json"
	"net/url"
	"time"
)

// Array returns a codec for slices of V, recursing element-wise through
// the element codec. Elements that fail to decode are compacted away
// rather than failing the whole container.
func Array[V any](elem Codec[V]) Codec[[]V] { return arrayCodec[V]{elem: elem} }

type arrayCodec[V any] struct {
	elem Codec[V]
}

func (c arrayCodec[V]) Encode(v []V) Value {
	items := make([]Value, 0, len(v))
	for _, item := range v {
		items = append(items, c.elem.Encode(item))
	}
	return ArrayValue(items...)
}

func (c arrayCodec[V]) Decode(val Value) ([]V, bool) {
	items, ok := val.AsArray()
	if !ok {
		return nil, false
	}
	out := make([]V, 0, len(items))
	for _, item := range items {
		if v, ok := c.elem.Decode(item); ok {
			out = append(out, v)
		}
	}
	return out, true
}

// StringMap returns a codec for string-keyed maps of V with the same
// element-wise compaction policy as Array.
func StringMap[V any](elem Codec[V]) Codec[map[string]V] { return mapCodec[V]{elem: elem} }

type mapCodec[V any] struct {
	elem Codec[V]
}

func (c mapCodec[V]) Encode(v map[string]V) Value {
	m := make(map[string]Value, len(v))
	for k, item := range v {
		m[k] = c.elem.Encode(item)
	}
	return MapValue(m)
}

func (c mapCodec[V]) Decode(val Value) (map[string]V, bool) {
	items, ok := val.AsMap()
	if !ok {
		return nil, false
	}
	out := make(map[string]V, len(items))
	for k, item := range items {
		if v, ok := c.elem.Decode(item); ok {
			out[k] = v
		}
	}
	return out, true
}

// Pointer returns a codec for optional values modeled as pointers. An
// absent variant decodes to nil, and so does an element decode failure:
// optionals deliberately swallow shape mismatches instead of reporting a
// miss, so a flag with a pointer type resolves to "no value" rather than
// falling through to its default. Callers relying on the distinction must
// use the non-optional codec.
func Pointer[V any](elem Codec[V]) Codec[*V] { return pointerCodec[V]{elem: elem} }

type pointerCodec[V any] struct {
	elem Codec[V]
}

func (c pointerCodec[V]) Encode(v *V) Value {
	if v == nil {
		return Absent()
	}
	return c.elem.Encode(*v)
}

func (c pointerCodec[V]) Decode(val Value) (*V, bool) {
	if val.IsAbsent() {
		return nil, true
	}
	v, ok := c.elem.Decode(val)
	if !ok {
		return nil, true
	}
	return &v, true
}

// JSON returns the generic fallback codec for any JSON-serializable
// structured type. Encoding marshals to canonical bytes (encoding/json
// emits map keys in sorted order) boxed as a byte blob; a marshal failure
// degrades to an empty blob instead of propagating, so encode never fails.
// Decoding unmarshals the blob, or the opaque-JSON variant, back into V
// and reports a miss on any parse error.
func JSON[V any]() Codec[V] { return jsonCodec[V]{} }

type jsonCodec[V any] struct{}

func (jsonCodec[V]) Encode(v V) Value {
	data, err := json.Marshal(v)
	if err != nil {
		return BytesValue(nil)
	}
	return BytesValue(data)
}

func (jsonCodec[V]) Decode(val Value) (V, bool) {
	var out V
	var data []byte
	switch val.Kind() {
	case KindBytes:
		data, _ = val.AsBytes()
	case KindJSON:
		raw, _ := val.AsJSON()
		data = raw
	case KindMap, KindArray:
		// Providers that store structured documents natively hand the
		// tree back as map/array variants; re-serialize and decode.
		remarshaled, err := val.MarshalJSON()
		if err != nil {
			return out, false
		}
		data = remarshaled
	default:
		return out, false
	}
	if len(data) == 0 {
		return out, false
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, false
	}
	return out, true
}

// Auto resolves the builtin codec for V when V is one of the natively
// supported types, falling back to the generic JSON codec for structured
// types. Named types with builtin underlying types need an explicit codec
// (Int, String, and friends accept them through their type parameters).
func Auto[V any]() Codec[V] {
	var zero V
	switch any(zero).(type) {
	case bool:
		return any(Bool[bool]()).(Codec[V])
	case int:
		return any(Int[int]()).(Codec[V])
	case int8:
		return any(Int[int8]()).(Codec[V])
	case int16:
		return any(Int[int16]()).(Codec[V])
	case int32:
		return any(Int[int32]()).(Codec[V])
	case int64:
		return any(Int[int64]()).(Codec[V])
	case uint:
		return any(Int[uint]()).(Codec[V])
	case uint8:
		return any(Int[uint8]()).(Codec[V])
	case uint16:
		return any(Int[uint16]()).(Codec[V])
	case uint32:
		return any(Int[uint32]()).(Codec[V])
	case uint64:
		return any(Int[uint64]()).(Codec[V])
	case float32:
		return any(Float[float32]()).(Codec[V])
	case float64:
		return any(Float[float64]()).(Codec[V])
	case string:
		return any(String[string]()).(Codec[V])
	case []byte:
		return any(Bytes()).(Codec[V])
	case time.Time:
		return any(Time()).(Codec[V])
	case time.Duration:
		return any(Int[time.Duration]()).(Codec[V])
	case *url.URL:
		return any(URL()).(Codec[V])
	case []string:
		return any(Array(String[string]())).(Codec[V])
	case []int:
		return any(Array(Int[int]())).(Codec[V])
	case map[string]string:
		return any(StringMap(String[string]())).(Codec[V])
	default:
		return jsonCodec[V]{}
	}
}
