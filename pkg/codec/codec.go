package codec

import (
	"encoding/base64"
	"net/url"
	"strconv"
	"time"
)

// Codec converts a native type to and from the Value representation.
// Encode is total: it must produce a Value for every input. Decode is
// partial: it reports false on any shape mismatch instead of returning an
// error, so a failed decode folds into a provider miss and flag resolution
// continues down the chain.
type Codec[V any] interface {
	Encode(v V) Value
	Decode(val Value) (V, bool)
}

// IntegerType constrains the fixed-width integer types that normalize
// through the integer variant.
type IntegerType interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// FloatType constrains the floating-point types handled by Float.
type FloatType interface {
	~float32 | ~float64
}

// Bool returns the codec for booleans and bool-backed named types.
func Bool[T ~bool]() Codec[T] { return boolCodec[T]{} }

type boolCodec[T ~bool] struct{}

func (boolCodec[T]) Encode(v T) Value { return BoolValue(bool(v)) }

func (boolCodec[T]) Decode(val Value) (T, bool) {
	b, ok := val.AsBool()
	return T(b), ok
}

// Int returns the codec for a fixed-width integer type. Decoding accepts
// the integer variant, a boolean as 0/1, and a string parsed as a base-10
// integer; anything unparsable is a miss. A stored integer that cannot be
// represented in T without truncation is also a miss.
func Int[T IntegerType]() Codec[T] { return intCodec[T]{} }

type intCodec[T IntegerType] struct{}

func (intCodec[T]) Encode(v T) Value { return IntValue(int64(v)) }

func (intCodec[T]) Decode(val Value) (T, bool) {
	var i int64
	switch val.Kind() {
	case KindInteger:
		i, _ = val.AsInt()
	case KindBool:
		b, _ := val.AsBool()
		if b {
			i = 1
		}
	case KindString:
		s, _ := val.AsString()
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, false
		}
		i = parsed
	default:
		return 0, false
	}
	// Unsigned targets cannot represent negatives, and the 64-bit widths
	// would pass the round-trip check below after wrapping.
	if i < 0 && T(0)-1 > T(0) {
		return 0, false
	}
	out := T(i)
	if int64(out) != i {
		return 0, false
	}
	return out, true
}

// Float returns the codec for a floating-point type. Both precisions
// interconvert through the double and float variants; integer and
// numeric-string inputs are accepted as well.
func Float[T FloatType]() Codec[T] { return floatCodec[T]{} }

type floatCodec[T FloatType] struct{}

func (floatCodec[T]) Encode(v T) Value {
	if f32, ok := any(v).(float32); ok {
		return FloatValue(f32)
	}
	return DoubleValue(float64(v))
}

func (floatCodec[T]) Decode(val Value) (T, bool) {
	switch val.Kind() {
	case KindDouble, KindFloat:
		f, _ := val.AsFloat()
		return T(f), true
	case KindInteger:
		i, _ := val.AsInt()
		return T(i), true
	case KindString:
		s, _ := val.AsString()
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return T(f), true
	default:
		return 0, false
	}
}

// String returns the codec for strings and string-backed named types,
// which covers raw-representable enums with string backing.
func String[T ~string]() Codec[T] { return stringCodec[T]{} }

type stringCodec[T ~string] struct{}

func (stringCodec[T]) Encode(v T) Value { return StringValue(string(v)) }

func (stringCodec[T]) Decode(val Value) (T, bool) {
	s, ok := val.AsString()
	return T(s), ok
}

// Bytes returns the codec for opaque byte blobs. Decoding also accepts a
// base64 string, which is how blobs survive a trip through a JSON-backed
// provider.
func Bytes() Codec[[]byte] { return bytesCodec{} }

type bytesCodec struct{}

func (bytesCodec) Encode(v []byte) Value { return BytesValue(v) }

func (bytesCodec) Decode(val Value) ([]byte, bool) {
	if b, ok := val.AsBytes(); ok {
		return b, true
	}
	if s, ok := val.AsString(); ok {
		if b, err := base64.StdEncoding.DecodeString(s); err == nil {
			return b, true
		}
	}
	return nil, false
}

// Time returns the codec for timestamps, encoded as ISO-8601 (RFC 3339)
// strings. A string that does not parse is a miss.
func Time() Codec[time.Time] { return timeCodec{} }

type timeCodec struct{}

func (timeCodec) Encode(v time.Time) Value {
	return StringValue(v.Format(time.RFC3339Nano))
}

func (timeCodec) Decode(val Value) (time.Time, bool) {
	s, ok := val.AsString()
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		// Accept the second-precision form too.
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, false
		}
	}
	return t, true
}

// URL returns the codec for URLs, encoded as their absolute-string form.
func URL() Codec[*url.URL] { return urlCodec{} }

type urlCodec struct{}

func (urlCodec) Encode(v *url.URL) Value {
	if v == nil {
		return Absent()
	}
	return StringValue(v.String())
}

func (urlCodec) Decode(val Value) (*url.URL, bool) {
	s, ok := val.AsString()
	if !ok || s == "" {
		return nil, false
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, false
	}
	return u, true
}
