package expr

import (
	"math"
	"math/big"

	"github.com/reifydb/reifydb/internal/reifyerr"
	"github.com/reifydb/reifydb/internal/row"
)

// Saturation is a column's overflow policy (spec.md §4.J "Numeric
// arithmetic ... parameterized by a column saturation policy").
type Saturation int

const (
	// SaturateError aborts the expression with a typed KindOverflow error
	// carrying the offending source fragment.
	SaturateError Saturation = iota
	// SaturateUndefined silently produces Undefined on overflow.
	SaturateUndefined
)

var signedRank = map[row.Type]int{row.Int1: 1, row.Int2: 2, row.Int4: 3, row.Int8: 4, row.Int16: 5}
var unsignedRank = map[row.Type]int{row.Uint1: 1, row.Uint2: 2, row.Uint4: 3, row.Uint8: 4, row.Uint16: 5}
var signedByRank = map[int]row.Type{1: row.Int1, 2: row.Int2, 3: row.Int4, 4: row.Int8, 5: row.Int16}
var unsignedByRank = map[int]row.Type{1: row.Uint1, 2: row.Uint2, 3: row.Uint4, 4: row.Uint8, 5: row.Uint16}

func bitWidth(t row.Type) int {
	switch t {
	case row.Int1, row.Uint1:
		return 8
	case row.Int2, row.Uint2:
		return 16
	case row.Int4, row.Uint4, row.Float4:
		return 32
	case row.Int8, row.Uint8, row.Float8:
		return 64
	case row.Int16, row.Uint16:
		return 128
	default:
		return 0
	}
}

// Promote implements spec.md §4.J "Numeric arithmetic": "Promotion rules
// follow a fixed lattice (Int1 < Int2 < Int4 < Int8 < Int16; same for
// Uint*; mixed signed/unsigned promotes to the smallest signed type
// containing both ranges; any numeric op with a float produces a float)".
func Promote(l, r row.Type) (row.Type, error) {
	if !l.IsNumeric() || !r.IsNumeric() {
		return row.Undefined, reifyerr.Schema("arithmetic requires numeric operands", l.String()+" vs "+r.String())
	}
	// Arbitrary-precision Int/Uint promote to the fixed lattice's top
	// (Int16/Uint16): this evaluator's saturation model needs a concrete
	// bound, so true unbounded arithmetic is out of scope here.
	if l == row.Int {
		l = row.Int16
	} else if l == row.Uint {
		l = row.Uint16
	}
	if r == row.Int {
		r = row.Int16
	} else if r == row.Uint {
		r = row.Uint16
	}
	if l.IsFloat() || r.IsFloat() {
		if l == row.Float8 || r == row.Float8 {
			return row.Float8, nil
		}
		return row.Float4, nil
	}
	if l == row.Decimal || r == row.Decimal {
		return row.Undefined, reifyerr.Schema("decimal arithmetic is not supported by this evaluator", l.String()+" vs "+r.String())
	}

	lSigned, lOK := signedRank[l]
	rSigned, rOK := signedRank[r]
	if lOK && rOK {
		rank := lSigned
		if rSigned > rank {
			rank = rSigned
		}
		return signedByRank[rank], nil
	}

	lUnsigned, lUOK := unsignedRank[l]
	rUnsigned, rUOK := unsignedRank[r]
	if lUOK && rUOK {
		rank := lUnsigned
		if rUnsigned > rank {
			rank = rUnsigned
		}
		return unsignedByRank[rank], nil
	}

	// Mixed signed/unsigned: promote to the smallest signed type whose
	// range contains both operands' ranges.
	var unsignedType, signedType row.Type
	if lUOK {
		unsignedType, signedType = l, r
	} else {
		unsignedType, signedType = r, l
	}
	wu := bitWidth(unsignedType)
	ws := bitWidth(signedType)
	need := wu + 1 // smallest signed width that can hold the unsigned type's full positive range
	width := ws
	if need > width {
		width = need
	}
	switch {
	case width <= 8:
		return row.Int1, nil
	case width <= 16:
		return row.Int2, nil
	case width <= 32:
		return row.Int4, nil
	case width <= 64:
		return row.Int8, nil
	default:
		// Uint16's full range cannot be contained by any signed type this
		// lattice defines; Int16 is the best available approximation, and
		// a value that doesn't fit is caught by the bounds check in Add/
		// Sub/Mul/Div like any other overflow.
		return row.Int16, nil
	}
}

// unboundedInt reports whether t is an arbitrary-precision integer type with
// no fixed bit-width bound to saturate against.
func unboundedInt(t row.Type) bool {
	return t == row.Int || t == row.Uint
}

func typeBounds(t row.Type) (min, max *big.Int) {
	one := big.NewInt(1)
	switch t {
	case row.Int1, row.Int2, row.Int4, row.Int8, row.Int16:
		bits := bitWidth(t)
		max = new(big.Int).Lsh(one, uint(bits-1))
		min = new(big.Int).Neg(max)
		max = new(big.Int).Sub(max, one)
		return min, max
	case row.Uint1, row.Uint2, row.Uint4, row.Uint8, row.Uint16:
		bits := bitWidth(t)
		max = new(big.Int).Sub(new(big.Int).Lsh(one, uint(bits)), one)
		return big.NewInt(0), max
	default:
		return nil, nil
	}
}

// ToBigInt converts a row-decoded integer value (int64, uint64, or
// *big.Int, per internal/row's decode conventions) into a big.Int for
// promotion-lattice arithmetic.
func ToBigInt(v any) (*big.Int, error) {
	switch x := v.(type) {
	case *big.Int:
		return x, nil
	case int64:
		return big.NewInt(x), nil
	case uint64:
		return new(big.Int).SetUint64(x), nil
	default:
		return nil, reifyerr.Internal("expr: value is not an integer type")
	}
}

// FromBigInt converts a big.Int result back into the Go representation
// internal/row.Encode expects for the given integer type.
func FromBigInt(t row.Type, bi *big.Int) any {
	switch t {
	case row.Int16, row.Uint16, row.Int, row.Uint:
		return bi
	case row.Uint1, row.Uint2, row.Uint4, row.Uint8:
		return bi.Uint64()
	default:
		return bi.Int64()
	}
}

type arithOp int

const (
	opAdd arithOp = iota
	opSub
	opMul
	opDiv
	opMod
)

// arithInt evaluates a saturating binary arithmetic op between two integer
// column values already promoted to the same target type.
func arithInt(op arithOp, target row.Type, a, b *big.Int, sat Saturation, sourceFragment string) (any, error) {
	var result *big.Int
	switch op {
	case opAdd:
		result = new(big.Int).Add(a, b)
	case opSub:
		result = new(big.Int).Sub(a, b)
	case opMul:
		result = new(big.Int).Mul(a, b)
	case opDiv:
		if b.Sign() == 0 {
			if sat == SaturateError {
				return nil, reifyerr.Overflow(sourceFragment)
			}
			return nil, nil
		}
		result = new(big.Int).Quo(a, b)
	case opMod:
		if b.Sign() == 0 {
			if sat == SaturateError {
				return nil, reifyerr.Overflow(sourceFragment)
			}
			return nil, nil
		}
		result = new(big.Int).Rem(a, b)
	}

	min, max := typeBounds(target)
	if result.Cmp(min) < 0 || result.Cmp(max) > 0 {
		if sat == SaturateError {
			return nil, reifyerr.Overflow(sourceFragment)
		}
		return nil, nil // Undefined
	}
	return FromBigInt(target, result), nil
}

func arithFloat(op arithOp, a, b float64) float64 {
	switch op {
	case opAdd:
		return a + b
	case opSub:
		return a - b
	case opMul:
		return a * b
	case opDiv:
		return a / b
	case opMod:
		return math.Mod(a, b)
	default:
		return math.NaN()
	}
}
