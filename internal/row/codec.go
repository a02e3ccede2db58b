package row

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Values is a single encoded row: [defined-bitvec][fixed-fields][heap].
// All multi-byte fixed fields are little-endian and read unaligned, since a
// row may begin at an arbitrary offset inside a larger buffer (spec.md §6).
type Values []byte

func bitvecSet(buf []byte, i int, v bool) {
	byteIdx, bit := i/8, uint(i%8)
	if v {
		buf[byteIdx] |= 1 << bit
	} else {
		buf[byteIdx] &^= 1 << bit
	}
}

func bitvecGet(buf []byte, i int) bool {
	byteIdx, bit := i/8, uint(i%8)
	return buf[byteIdx]&(1<<bit) != 0
}

// Encode packs vals (one entry per layout field, nil meaning undefined) into
// a new Values buffer per the Layout.
func Encode(l *Layout, vals []any) (Values, error) {
	if len(vals) != l.Len() {
		return nil, fmt.Errorf("row: Encode: %d values for a %d-field layout", len(vals), l.Len())
	}
	buf := make([]byte, l.fixedLen)
	var heap []byte

	for i, f := range l.fields {
		v := vals[i]
		if v == nil {
			bitvecSet(buf, i, false)
			continue
		}
		bitvecSet(buf, i, true)
		if f.typ.IsFixedWidth() {
			if err := encodeFixed(buf[f.offset:f.offset+f.typ.FixedWidth()], f.typ, v); err != nil {
				return nil, fmt.Errorf("row: field %d (%s): %w", i, f.typ, err)
			}
			continue
		}
		payload, err := encodeVariable(f.typ, v)
		if err != nil {
			return nil, fmt.Errorf("row: field %d (%s): %w", i, f.typ, err)
		}
		binary.LittleEndian.PutUint32(buf[f.offset:f.offset+4], uint32(len(heap)))
		binary.LittleEndian.PutUint32(buf[f.offset+4:f.offset+8], uint32(len(payload)))
		heap = append(heap, payload...)
	}
	return append(buf, heap...), nil
}

// Decode unpacks a Values buffer into a slice of Go values, one per layout
// field, with nil standing in for the type's default/undefined value.
func Decode(l *Layout, enc Values) ([]any, error) {
	if len(enc) < l.fixedLen {
		return nil, fmt.Errorf("row: Decode: buffer too short (%d < %d)", len(enc), l.fixedLen)
	}
	heap := enc[l.fixedLen:]
	out := make([]any, l.Len())
	for i, f := range l.fields {
		if !bitvecGet(enc, i) {
			out[i] = nil
			continue
		}
		if f.typ.IsFixedWidth() {
			v, err := decodeFixed(enc[f.offset:f.offset+f.typ.FixedWidth()], f.typ)
			if err != nil {
				return nil, fmt.Errorf("row: field %d (%s): %w", i, f.typ, err)
			}
			out[i] = v
			continue
		}
		off := binary.LittleEndian.Uint32(enc[f.offset : f.offset+4])
		ln := binary.LittleEndian.Uint32(enc[f.offset+4 : f.offset+8])
		if uint64(off)+uint64(ln) > uint64(len(heap)) {
			return nil, fmt.Errorf("row: field %d (%s): heap slice out of range", i, f.typ)
		}
		v, err := decodeVariable(f.typ, heap[off:off+ln])
		if err != nil {
			return nil, fmt.Errorf("row: field %d (%s): %w", i, f.typ, err)
		}
		out[i] = v
	}
	return out, nil
}

// DefinedBits reports, for each field, whether it was defined (not a
// tombstone/undefined value) when enc was encoded.
func DefinedBits(l *Layout, enc Values) []bool {
	out := make([]bool, l.Len())
	for i := range l.fields {
		out[i] = bitvecGet(enc, i)
	}
	return out
}

func encodeFixed(dst []byte, t Type, v any) error {
	switch t {
	case Bool:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", v)
		}
		if b {
			dst[0] = 1
		} else {
			dst[0] = 0
		}
	case Int1:
		iv, err := asInt64(v)
		if err != nil {
			return err
		}
		dst[0] = byte(int8(iv))
	case Int2:
		iv, err := asInt64(v)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint16(dst, uint16(int16(iv)))
	case Int4, Date:
		iv, err := asInt64(v)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(dst, uint32(int32(iv)))
	case Int8, DateTime, Time, Duration:
		iv, err := asInt64(v)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint64(dst, uint64(iv))
	case Int16:
		bi, ok := v.(*big.Int)
		if !ok {
			return fmt.Errorf("expected *big.Int for Int16, got %T", v)
		}
		putBigInt128(dst, bi)
	case Uint1:
		uv, err := asUint64(v)
		if err != nil {
			return err
		}
		dst[0] = byte(uv)
	case Uint2:
		uv, err := asUint64(v)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint16(dst, uint16(uv))
	case Uint4:
		uv, err := asUint64(v)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(dst, uint32(uv))
	case Uint8:
		uv, err := asUint64(v)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint64(dst, uv)
	case Uint16:
		bi, ok := v.(*big.Int)
		if !ok {
			return fmt.Errorf("expected *big.Int for Uint16, got %T", v)
		}
		putBigInt128(dst, bi)
	case Float4:
		fv, err := asFloat64(v)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(fv)))
	case Float8:
		fv, err := asFloat64(v)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint64(dst, math.Float64bits(fv))
	case Uuid4, Uuid7:
		u, ok := v.(uuid.UUID)
		if !ok {
			return fmt.Errorf("expected uuid.UUID, got %T", v)
		}
		copy(dst, u[:])
	default:
		return fmt.Errorf("encodeFixed: unsupported type %s", t)
	}
	return nil
}

func decodeFixed(src []byte, t Type) (any, error) {
	switch t {
	case Bool:
		return src[0] != 0, nil
	case Int1:
		return int64(int8(src[0])), nil
	case Int2:
		return int64(int16(binary.LittleEndian.Uint16(src))), nil
	case Int4:
		return int64(int32(binary.LittleEndian.Uint32(src))), nil
	case Date:
		return int64(int32(binary.LittleEndian.Uint32(src))), nil
	case Int8:
		return int64(binary.LittleEndian.Uint64(src)), nil
	case DateTime:
		return time.Unix(0, int64(binary.LittleEndian.Uint64(src))).UTC(), nil
	case Time:
		return time.Duration(int64(binary.LittleEndian.Uint64(src))), nil
	case Duration:
		return time.Duration(int64(binary.LittleEndian.Uint64(src))), nil
	case Int16:
		return getBigInt128(src, true), nil
	case Uint1:
		return uint64(src[0]), nil
	case Uint2:
		return uint64(binary.LittleEndian.Uint16(src)), nil
	case Uint4:
		return uint64(binary.LittleEndian.Uint32(src)), nil
	case Uint8:
		return binary.LittleEndian.Uint64(src), nil
	case Uint16:
		return getBigInt128(src, false), nil
	case Float4:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(src))), nil
	case Float8:
		return math.Float64frombits(binary.LittleEndian.Uint64(src)), nil
	case Uuid4, Uuid7:
		var u uuid.UUID
		copy(u[:], src)
		return u, nil
	default:
		return nil, fmt.Errorf("decodeFixed: unsupported type %s", t)
	}
}

func encodeVariable(t Type, v any) ([]byte, error) {
	switch t {
	case Utf8:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		// Canonical NFC normalization so two byte-distinct-but-equal
		// strings encode identically (used by NamedLayout fingerprinting
		// and by equality comparisons downstream).
		return []byte(norm.NFC.String(s)), nil
	case Blob:
		b, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("expected []byte, got %T", v)
		}
		return b, nil
	case Int, Uint:
		bi, ok := v.(*big.Int)
		if !ok {
			return nil, fmt.Errorf("expected *big.Int, got %T", v)
		}
		mag := bi.Bytes()
		payload := make([]byte, 1+len(mag))
		if bi.Sign() < 0 {
			payload[0] = 1
		}
		copy(payload[1:], mag)
		return payload, nil
	case Decimal:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected decimal string, got %T", v)
		}
		return []byte(s), nil
	default:
		return nil, fmt.Errorf("encodeVariable: unsupported type %s", t)
	}
}

func decodeVariable(t Type, b []byte) (any, error) {
	switch t {
	case Utf8:
		return string(b), nil
	case Blob:
		return append([]byte(nil), b...), nil
	case Int, Uint:
		return decodeArbitraryPrecision(t, b)
	case Decimal:
		return string(b), nil
	default:
		return nil, fmt.Errorf("decodeVariable: unsupported type %s", t)
	}
}

// decodeArbitraryPrecision reverses the [signByte][magnitude] encoding used
// by encodeVariable for the heap-spilled Int/Uint types.
func decodeArbitraryPrecision(t Type, b []byte) (*big.Int, error) {
	if len(b) == 0 {
		return new(big.Int), nil
	}
	mag := new(big.Int).SetBytes(b[1:])
	if t == Int && b[0] == 1 {
		mag.Neg(mag)
	}
	return mag, nil
}

// putBigInt128 writes a *big.Int into a 16-byte little-endian slot,
// two's-complement for signed values.
func putBigInt128(dst []byte, bi *big.Int) {
	for i := range dst {
		dst[i] = 0
	}
	if bi.Sign() >= 0 {
		b := bi.Bytes() // big-endian
		for i := 0; i < len(b) && i < 16; i++ {
			dst[i] = b[len(b)-1-i]
		}
		return
	}
	// Two's complement of the magnitude over 16 bytes.
	mag := new(big.Int).Neg(bi)
	b := mag.Bytes()
	tmp := make([]byte, 16)
	for i := 0; i < len(b) && i < 16; i++ {
		tmp[i] = b[len(b)-1-i]
	}
	carry := byte(1)
	for i := 0; i < 16; i++ {
		v := ^tmp[i] + carry
		if tmp[i] != 0xff || carry == 1 {
			carry = 0
			if v < ^tmp[i] {
				carry = 1
			}
		}
		dst[i] = v
	}
}

func getBigInt128(src []byte, signed bool) *big.Int {
	be := make([]byte, 16)
	for i := 0; i < 16; i++ {
		be[i] = src[15-i]
	}
	if !signed || be[0]&0x80 == 0 {
		return new(big.Int).SetBytes(be)
	}
	// Negative: two's complement decode.
	inv := make([]byte, 16)
	for i, b := range be {
		inv[i] = ^b
	}
	mag := new(big.Int).SetBytes(inv)
	mag.Add(mag, big.NewInt(1))
	return mag.Neg(mag)
}

func asInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int:
		return int64(x), nil
	case time.Duration:
		return int64(x), nil
	case time.Time:
		return x.UnixNano(), nil
	default:
		return 0, fmt.Errorf("cannot coerce %T to int64", v)
	}
}

func asUint64(v any) (uint64, error) {
	switch x := v.(type) {
	case uint64:
		return x, nil
	case uint32:
		return uint64(x), nil
	case uint:
		return uint64(x), nil
	default:
		return 0, fmt.Errorf("cannot coerce %T to uint64", v)
	}
}

func asFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("cannot coerce %T to float64", v)
	}
}
