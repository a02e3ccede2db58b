// Package row implements the packed binary row format (spec.md §4.A):
// a "defined" bitvec followed by fixed-width slots, with variable-width
// fields spilling to a trailing heap referenced by offset+length.
//
// What: Layout/NamedLayout describe a schema; Values is a single encoded
// row; Encode/Decode convert between Values and a slice of typed Go values.
// How: fixed-width types (bool, numeric, temporal, UUID) get a reserved
// slot in the row; Utf8/Blob/Int/Uint/Decimal (arbitrary precision) spill
// to the heap area and the slot holds an (offset, length) pair instead.
// Why: a self-describing fixed layout lets the executor do unaligned,
// allocation-light field access without per-row schema lookups on the hot
// path, while still allowing variable-length data.
package row

import "fmt"

// Type enumerates the column value types the row codec and executor share.
type Type uint8

const (
	Undefined Type = iota
	Bool
	Int1
	Int2
	Int4
	Int8
	Int16
	Uint1
	Uint2
	Uint4
	Uint8
	Uint16
	Float4
	Float8
	Utf8
	Blob
	Date
	DateTime
	Time
	Duration
	Uuid4
	Uuid7
	Decimal
	Int   // arbitrary-precision, heap-spilled
	Uint  // arbitrary-precision, heap-spilled
)

// IsFixedWidth reports whether values of this type occupy a fixed number of
// bytes directly in the row's fixed-slot area (as opposed to spilling to
// the heap behind an offset+length pair).
func (t Type) IsFixedWidth() bool {
	switch t {
	case Utf8, Blob, Decimal, Int, Uint:
		return false
	default:
		return true
	}
}

// FixedWidth returns the number of bytes a fixed-width type occupies in the
// row's slot area. Panics for variable-width types; callers must check
// IsFixedWidth first.
func (t Type) FixedWidth() int {
	switch t {
	case Bool, Int1, Uint1:
		return 1
	case Int2, Uint2:
		return 2
	case Int4, Uint4, Float4, Date:
		return 4
	case Int8, Uint8, Float8, DateTime, Time, Duration:
		return 8
	case Int16, Uint16, Uuid4, Uuid7:
		return 16
	case Undefined:
		return 0
	default:
		panic(fmt.Sprintf("row: FixedWidth called on variable-width type %v", t))
	}
}

func (t Type) String() string {
	switch t {
	case Undefined:
		return "Undefined"
	case Bool:
		return "Bool"
	case Int1:
		return "Int1"
	case Int2:
		return "Int2"
	case Int4:
		return "Int4"
	case Int8:
		return "Int8"
	case Int16:
		return "Int16"
	case Uint1:
		return "Uint1"
	case Uint2:
		return "Uint2"
	case Uint4:
		return "Uint4"
	case Uint8:
		return "Uint8"
	case Uint16:
		return "Uint16"
	case Float4:
		return "Float4"
	case Float8:
		return "Float8"
	case Utf8:
		return "Utf8"
	case Blob:
		return "Blob"
	case Date:
		return "Date"
	case DateTime:
		return "DateTime"
	case Time:
		return "Time"
	case Duration:
		return "Duration"
	case Uuid4:
		return "Uuid4"
	case Uuid7:
		return "Uuid7"
	case Decimal:
		return "Decimal"
	case Int:
		return "Int"
	case Uint:
		return "Uint"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// IsNumeric reports whether the type participates in the arithmetic
// promotion lattice (spec.md §4.J "Numeric arithmetic").
func (t Type) IsNumeric() bool {
	switch t {
	case Int1, Int2, Int4, Int8, Int16, Uint1, Uint2, Uint4, Uint8, Uint16,
		Float4, Float8, Int, Uint, Decimal:
		return true
	default:
		return false
	}
}

// IsSigned reports whether a numeric type is signed.
func (t Type) IsSigned() bool {
	switch t {
	case Int1, Int2, Int4, Int8, Int16, Int, Float4, Float8, Decimal:
		return true
	default:
		return false
	}
}

// IsFloat reports whether a numeric type is floating point.
func (t Type) IsFloat() bool {
	return t == Float4 || t == Float8
}
