// Package codec implements the tagged byte encoding that maps dynamic Go
// values onto the ordered keyspace of the storage engine.
//
// An encoded key or value is a single tag byte followed by the payload. The
// tag values are part of the on-disk format and must never change. Byte and
// string payloads compare correctly under byte-lexicographic order; integer
// and float payloads do not (minimal-length two's complement is not
// length-normalized, and negative floats invert under bitwise comparison).
// Callers that need order-preserving numeric keys must arrange it themselves.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/big"
	"unicode/utf8"
)

// Wire tags. Stable across implementations sharing a storage directory.
const (
	TagBytes  byte = 1 // raw byte slice
	TagString byte = 2 // UTF-8 string
	TagInt    byte = 3 // big-endian two's complement, minimal length
	TagFloat  byte = 4 // IEEE-754 double, big-endian, fixed 8 bytes
	TagBool   byte = 5 // single byte, 0 or 1
	TagBlob   byte = 6 // opaque serializer output, values only
)

var (
	ErrUnsupportedType = errors.New("codec: unsupported type")
	ErrDecode          = errors.New("codec: malformed encoding")
)

// EncodeKey converts v into its tagged byte form. Keys are restricted to the
// five primitive kinds so that key ordering stays well-defined; values that
// would need the opaque fallback are rejected. In raw mode only []byte is
// accepted and the bytes pass through untagged.
func EncodeKey(v any, rawMode bool) ([]byte, error) {
	if rawMode {
		b, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("%w: raw mode accepts []byte keys, got %T", ErrUnsupportedType, v)
		}
		return append([]byte(nil), b...), nil
	}
	enc, ok := encodePrimitive(v)
	if !ok {
		return nil, fmt.Errorf("%w: %T cannot be used as a key", ErrUnsupportedType, v)
	}
	return enc, nil
}

// EncodeValue converts v into its tagged byte form, falling back to the
// injected serializer (tag 6) for anything outside the five primitive kinds.
// In raw mode only []byte is accepted and the bytes pass through untagged.
func EncodeValue(v any, s Serializer, rawMode bool) ([]byte, error) {
	if rawMode {
		b, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("%w: raw mode accepts []byte values, got %T", ErrUnsupportedType, v)
		}
		return append([]byte(nil), b...), nil
	}
	if enc, ok := encodePrimitive(v); ok {
		return enc, nil
	}
	if s == nil {
		return nil, fmt.Errorf("%w: %T needs a serializer and none is configured", ErrUnsupportedType, v)
	}
	blob, err := s.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("serializing %T: %w", v, err)
	}
	return append([]byte{TagBlob}, blob...), nil
}

// DecodeKey reverses EncodeKey. The opaque blob tag is invalid in keys.
func DecodeKey(b []byte, rawMode bool) (any, error) {
	if rawMode {
		return copyBytes(b), nil
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty key", ErrDecode)
	}
	if b[0] == TagBlob {
		return nil, fmt.Errorf("%w: opaque blob tag in key", ErrDecode)
	}
	return decodeTagged(b, nil)
}

// DecodeValue reverses EncodeValue. Dispatch is purely on the leading tag
// byte; unknown tags, invalid UTF-8 and wrong fixed-width payloads fail with
// ErrDecode. In raw mode the bytes are returned unchanged.
func DecodeValue(b []byte, s Serializer, rawMode bool) (any, error) {
	if rawMode {
		return copyBytes(b), nil
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty value", ErrDecode)
	}
	return decodeTagged(b, s)
}

func encodePrimitive(v any) ([]byte, bool) {
	switch x := v.(type) {
	case []byte:
		return append([]byte{TagBytes}, x...), true
	case string:
		return append([]byte{TagString}, x...), true
	case bool:
		if x {
			return []byte{TagBool, 1}, true
		}
		return []byte{TagBool, 0}, true
	case int:
		return appendInt64([]byte{TagInt}, int64(x)), true
	case int8:
		return appendInt64([]byte{TagInt}, int64(x)), true
	case int16:
		return appendInt64([]byte{TagInt}, int64(x)), true
	case int32:
		return appendInt64([]byte{TagInt}, int64(x)), true
	case int64:
		return appendInt64([]byte{TagInt}, x), true
	case uint:
		return appendUint64([]byte{TagInt}, uint64(x)), true
	case uint8:
		return appendInt64([]byte{TagInt}, int64(x)), true
	case uint16:
		return appendInt64([]byte{TagInt}, int64(x)), true
	case uint32:
		return appendInt64([]byte{TagInt}, int64(x)), true
	case uint64:
		return appendUint64([]byte{TagInt}, x), true
	case *big.Int:
		// A nil pointer carries no magnitude; leave it to the fallback.
		if x == nil {
			return nil, false
		}
		return appendBigInt([]byte{TagInt}, x), true
	case float64:
		return appendFloat([]byte{TagFloat}, x), true
	case float32:
		return appendFloat([]byte{TagFloat}, float64(x)), true
	}
	return nil, false
}

func decodeTagged(b []byte, s Serializer) (any, error) {
	tag, payload := b[0], b[1:]
	switch tag {
	case TagBytes:
		return copyBytes(payload), nil
	case TagString:
		if !utf8.Valid(payload) {
			return nil, fmt.Errorf("%w: string payload is not valid UTF-8", ErrDecode)
		}
		return string(payload), nil
	case TagInt:
		return decodeInt(payload)
	case TagFloat:
		if len(payload) != 8 {
			return nil, fmt.Errorf("%w: float payload is %d bytes, want 8", ErrDecode, len(payload))
		}
		return math.Float64frombits(binary.BigEndian.Uint64(payload)), nil
	case TagBool:
		if len(payload) != 1 || payload[0] > 1 {
			return nil, fmt.Errorf("%w: bad boolean payload", ErrDecode)
		}
		return payload[0] == 1, nil
	case TagBlob:
		if s == nil {
			return nil, fmt.Errorf("%w: opaque blob with no serializer configured", ErrDecode)
		}
		v, err := s.Unmarshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: opaque blob: %w", ErrDecode, err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("%w: unknown tag byte %d", ErrDecode, tag)
}

// appendInt64 appends the minimal-length big-endian two's complement form of
// v: leading 0x00 bytes are dropped while the next byte keeps the sign bit
// clear, leading 0xFF bytes while the next byte keeps it set. Zero encodes
// as a single 0x00.
func appendInt64(dst []byte, v int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	i := 0
	for i < 7 {
		if b[i] == 0x00 && b[i+1]&0x80 == 0 {
			i++
			continue
		}
		if b[i] == 0xFF && b[i+1]&0x80 != 0 {
			i++
			continue
		}
		break
	}
	return append(dst, b[i:]...)
}

func appendUint64(dst []byte, v uint64) []byte {
	if v <= math.MaxInt64 {
		return appendInt64(dst, int64(v))
	}
	return appendBigInt(dst, new(big.Int).SetUint64(v))
}

func appendBigInt(dst []byte, v *big.Int) []byte {
	if v.IsInt64() {
		return appendInt64(dst, v.Int64())
	}
	if v.Sign() > 0 {
		mag := v.Bytes()
		if mag[0]&0x80 != 0 {
			dst = append(dst, 0)
		}
		return append(dst, mag...)
	}
	// Negative: shortest width whose leading bit survives as the sign bit.
	w := len(v.Bytes())
	buf := twosComplement(v, w)
	if buf[0]&0x80 == 0 {
		buf = twosComplement(v, w+1)
	}
	return append(dst, buf...)
}

func twosComplement(v *big.Int, width int) []byte {
	t := new(big.Int).Lsh(big.NewInt(1), uint(8*width))
	t.Add(t, v)
	return t.FillBytes(make([]byte, width))
}

// decodeInt returns int64 when the payload fits, *big.Int otherwise.
func decodeInt(payload []byte) (any, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: truncated integer payload", ErrDecode)
	}
	neg := payload[0]&0x80 != 0
	if len(payload) <= 8 {
		var u uint64
		if neg {
			u = math.MaxUint64
		}
		for _, c := range payload {
			u = u<<8 | uint64(c)
		}
		return int64(u), nil
	}
	i := new(big.Int).SetBytes(payload)
	if neg {
		i.Sub(i, new(big.Int).Lsh(big.NewInt(1), uint(8*len(payload))))
	}
	if i.IsInt64() {
		return i.Int64(), nil
	}
	return i, nil
}

func appendFloat(dst []byte, v float64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	return append(dst, b[:]...)
}

// copyBytes always hands back a fresh, non-nil slice so decoded values never
// alias storage or compare unequal to an empty literal.
func copyBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
