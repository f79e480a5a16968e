package encoding

import (
	"encoding/binary"
	"math"

	"github.com/unitlink/unitlink/types/optional"
)

// Typed accessors interpret a leaf payload as a fixed-width little-endian
// value. All of them fail on parent nodes and on length mismatch.

func (t *TLV) value(size int, what string) ([]byte, error) {
	if t.isParent {
		return nil, ErrValue{"accessor called on a parent node"}
	}
	if size >= 0 && len(t.data) != size {
		return nil, ErrValue{"wrong payload length for " + what}
	}
	return t.data, nil
}

// AsByte interprets the payload as an unsigned 8-bit integer.
func (t *TLV) AsByte() (byte, error) {
	v, err := t.value(1, "byte")
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

// AsSByte interprets the payload as a signed 8-bit integer.
func (t *TLV) AsSByte() (int8, error) {
	v, err := t.value(1, "sbyte")
	if err != nil {
		return 0, err
	}
	return int8(v[0]), nil
}

// AsBool interprets the payload as a boolean; any nonzero byte is true.
func (t *TLV) AsBool() (bool, error) {
	v, err := t.value(1, "bool")
	if err != nil {
		return false, err
	}
	return v[0] != 0, nil
}

// AsI16 interprets the payload as a little-endian signed 16-bit integer.
func (t *TLV) AsI16() (int16, error) {
	v, err := t.value(2, "i16")
	if err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(v)), nil
}

// AsU16 interprets the payload as a little-endian unsigned 16-bit integer.
func (t *TLV) AsU16() (uint16, error) {
	v, err := t.value(2, "u16")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(v), nil
}

// AsI32 interprets the payload as a little-endian signed 32-bit integer.
func (t *TLV) AsI32() (int32, error) {
	v, err := t.value(4, "i32")
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(v)), nil
}

// AsU32 interprets the payload as a little-endian unsigned 32-bit integer.
func (t *TLV) AsU32() (uint32, error) {
	v, err := t.value(4, "u32")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(v), nil
}

// AsI64 interprets the payload as a little-endian signed 64-bit integer.
func (t *TLV) AsI64() (int64, error) {
	v, err := t.value(8, "i64")
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(v)), nil
}

// AsU64 interprets the payload as a little-endian unsigned 64-bit integer.
func (t *TLV) AsU64() (uint64, error) {
	v, err := t.value(8, "u64")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(v), nil
}

// AsF32 interprets the payload as a little-endian IEEE-754 single.
func (t *TLV) AsF32() (float32, error) {
	v, err := t.value(4, "f32")
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(v)), nil
}

// AsF64 interprets the payload as a little-endian IEEE-754 double.
func (t *TLV) AsF64() (float64, error) {
	v, err := t.value(8, "f64")
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(v)), nil
}

// AsString interprets the payload as UTF-8 text. The producer is responsible
// for validity; the returned string does not alias the node's storage.
func (t *TLV) AsString() (string, error) {
	v, err := t.value(-1, "string")
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// AsBytes returns a defensive copy of the payload. Callers must not assume
// the returned buffer aliases the node's storage.
func (t *TLV) AsBytes() ([]byte, error) {
	v, err := t.value(-1, "bytes")
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// I32 is the optional form of AsI32 for dispatch paths that must not treat
// a malformed peer value as fatal.
func (t *TLV) I32() optional.Optional[int32] {
	v, err := t.AsI32()
	if err != nil {
		return optional.None[int32]()
	}
	return optional.Some(v)
}
