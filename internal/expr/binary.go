package expr

import (
	"bytes"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/reifydb/reifydb/internal/reifyerr"
	"github.com/reifydb/reifydb/internal/row"
)

// BinaryOp names one of the operators Binary dispatches through the
// promotion table (spec.md §4.K "Binary arithmetic dispatches on the
// runtime types of both sides ... to produce a new column at the
// promoted type").
type BinaryOp string

const (
	OpAdd BinaryOp = "+"
	OpSub BinaryOp = "-"
	OpMul BinaryOp = "*"
	OpDiv BinaryOp = "/"
	OpMod BinaryOp = "%"

	OpEq BinaryOp = "=="
	OpNe BinaryOp = "!="
	OpLt BinaryOp = "<"
	OpLe BinaryOp = "<="
	OpGt BinaryOp = ">"
	OpGe BinaryOp = ">="

	OpAnd BinaryOp = "and"
	OpOr  BinaryOp = "or"
)

var arithOps = map[BinaryOp]arithOp{OpAdd: opAdd, OpSub: opSub, OpMul: opMul, OpDiv: opDiv, OpMod: opMod}

// Binary evaluates a two-operand expression row by row over a batch.
type Binary struct {
	Op             BinaryOp
	Left, Right    Expr
	Name           string
	Saturation     Saturation
	SourceFragment string
}

func (x Binary) Eval(b *Batch) (Column, error) {
	l, err := x.Left.Eval(b)
	if err != nil {
		return Column{}, err
	}
	r, err := x.Right.Eval(b)
	if err != nil {
		return Column{}, err
	}
	if l.Len() != r.Len() {
		return Column{}, reifyerr.Internal("expr: operand width mismatch")
	}

	if op, ok := arithOps[x.Op]; ok {
		return x.evalArith(op, l, r)
	}
	switch x.Op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return x.evalCompare(l, r)
	case OpAnd, OpOr:
		return x.evalLogical(l, r)
	default:
		return Column{}, reifyerr.Internal("expr: unknown binary operator " + string(x.Op))
	}
}

func (x Binary) evalArith(op arithOp, l, r Column) (Column, error) {
	target, err := Promote(l.Type, r.Type)
	if err != nil {
		return Column{}, err
	}
	out := make([]any, l.Len())
	isFloat := target == row.Float4 || target == row.Float8
	for i := range out {
		lv, rv := l.Values[i], r.Values[i]
		if lv == nil || rv == nil {
			continue
		}
		if isFloat {
			lf, err := asFloat(lv)
			if err != nil {
				return Column{}, err
			}
			rf, err := asFloat(rv)
			if err != nil {
				return Column{}, err
			}
			out[i] = arithFloat(op, lf, rf)
			continue
		}
		lb, err := ToBigInt(lv)
		if err != nil {
			return Column{}, err
		}
		rb, err := ToBigInt(rv)
		if err != nil {
			return Column{}, err
		}
		v, err := arithInt(op, target, lb, rb, x.Saturation, x.SourceFragment)
		if err != nil {
			return Column{}, err
		}
		out[i] = v
	}
	return Column{Name: x.Name, Type: target, Values: out}, nil
}

func (x Binary) evalCompare(l, r Column) (Column, error) {
	out := make([]any, l.Len())
	for i := range out {
		lv, rv := l.Values[i], r.Values[i]
		if lv == nil || rv == nil {
			continue
		}
		switch x.Op {
		case OpEq, OpNe:
			eq, err := valuesEqual(l.Type, r.Type, lv, rv)
			if err != nil {
				return Column{}, err
			}
			out[i] = eq == (x.Op == OpEq)
		default:
			cmp, err := compareValues(l.Type, r.Type, lv, rv)
			if err != nil {
				return Column{}, err
			}
			switch x.Op {
			case OpLt:
				out[i] = cmp < 0
			case OpLe:
				out[i] = cmp <= 0
			case OpGt:
				out[i] = cmp > 0
			case OpGe:
				out[i] = cmp >= 0
			}
		}
	}
	return Column{Name: x.Name, Type: row.Bool, Values: out}, nil
}

func (x Binary) evalLogical(l, r Column) (Column, error) {
	out := make([]any, l.Len())
	for i := range out {
		lv, rv := l.Values[i], r.Values[i]
		lb, lok := lv.(bool)
		rb, rok := rv.(bool)
		switch x.Op {
		case OpAnd:
			if (lok && !lb) || (rok && !rb) {
				out[i] = false // short-circuits Undefined per SQL three-valued AND
			} else if lok && rok {
				out[i] = true
			}
		case OpOr:
			if (lok && lb) || (rok && rb) {
				out[i] = true
			} else if lok && rok {
				out[i] = false
			}
		}
	}
	return Column{Name: x.Name, Type: row.Bool, Values: out}, nil
}

func asFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	default:
		bi, err := ToBigInt(v)
		if err != nil {
			return 0, reifyerr.Internal("expr: value is not numeric")
		}
		f := new(big.Float).SetInt(bi)
		out, _ := f.Float64()
		return out, nil
	}
}

// Compare exposes compareValues for callers outside this package (e.g. the
// executor's Sort node) that need the same ordering rules without going
// through a full Binary expression.
func Compare(lt, rt row.Type, a, b any) (int, error) {
	return compareValues(lt, rt, a, b)
}

func compareValues(lt, rt row.Type, a, b any) (int, error) {
	if lt.IsNumeric() && rt.IsNumeric() {
		if lt.IsFloat() || rt.IsFloat() {
			af, err := asFloat(a)
			if err != nil {
				return 0, err
			}
			bf, err := asFloat(b)
			if err != nil {
				return 0, err
			}
			switch {
			case af < bf:
				return -1, nil
			case af > bf:
				return 1, nil
			default:
				return 0, nil
			}
		}
		ab, err := ToBigInt(a)
		if err != nil {
			return 0, err
		}
		bb, err := ToBigInt(b)
		if err != nil {
			return 0, err
		}
		return ab.Cmp(bb), nil
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, reifyerr.Schema("cannot compare string to non-string", rt.String())
		}
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		default:
			return 0, nil
		}
	case []byte:
		bv, ok := b.([]byte)
		if !ok {
			return 0, reifyerr.Schema("cannot compare blob to non-blob", rt.String())
		}
		return bytes.Compare(av, bv), nil
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, reifyerr.Schema("cannot compare temporal to non-temporal", rt.String())
		}
		switch {
		case av.Before(bv):
			return -1, nil
		case av.After(bv):
			return 1, nil
		default:
			return 0, nil
		}
	case time.Duration:
		bv, ok := b.(time.Duration)
		if !ok {
			return 0, reifyerr.Schema("cannot compare duration to non-duration", rt.String())
		}
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, reifyerr.Schema("type is not ordered", lt.String())
	}
}

func valuesEqual(lt, rt row.Type, a, b any) (bool, error) {
	if lt.IsNumeric() && rt.IsNumeric() {
		cmp, err := compareValues(lt, rt, a, b)
		if err != nil {
			return false, err
		}
		return cmp == 0, nil
	}
	switch av := a.(type) {
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv, nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv, nil
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv), nil
	case uuid.UUID:
		bv, ok := b.(uuid.UUID)
		return ok && av == bv, nil
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv), nil
	case time.Duration:
		bv, ok := b.(time.Duration)
		return ok && av == bv, nil
	default:
		cmp, err := compareValues(lt, rt, a, b)
		if err != nil {
			return false, err
		}
		return cmp == 0, nil
	}
}
