package expr

import (
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/reifydb/reifydb/internal/reifyerr"
	"github.com/reifydb/reifydb/internal/row"
)

// Cast converts a column from its source type to Target, routing by the
// (source, target) pair the way spec.md §4.K describes ("casts ... routing
// to specialized conversion routines").
type Cast struct {
	Name           string
	Target         row.Type
	Inner          Expr
	Saturation     Saturation
	SourceFragment string
}

func (c Cast) Eval(b *Batch) (Column, error) {
	in, err := c.Inner.Eval(b)
	if err != nil {
		return Column{}, err
	}
	out := make([]any, in.Len())
	for i, v := range in.Values {
		if v == nil {
			continue
		}
		cv, err := castValue(in.Type, c.Target, v, c.Saturation, c.SourceFragment)
		if err != nil {
			return Column{}, err
		}
		out[i] = cv
	}
	return Column{Name: c.Name, Type: c.Target, Values: out}, nil
}

func castValue(from, to row.Type, v any, sat Saturation, fragment string) (any, error) {
	if from == to {
		return v, nil
	}

	if to.IsNumeric() && from.IsNumeric() {
		return castNumeric(from, to, v, sat, fragment)
	}

	switch to {
	case row.Utf8:
		return stringify(from, v)
	case row.Blob:
		switch from {
		case row.Utf8:
			return []byte(v.(string)), nil
		case row.Blob:
			return v, nil
		}
	case row.Bool:
		switch from {
		case row.Utf8:
			parsed, err := strconv.ParseBool(v.(string))
			if err != nil {
				return nil, castErr(sat, fragment, from, to, err)
			}
			return parsed, nil
		}
	case row.Uuid4, row.Uuid7:
		switch from {
		case row.Utf8:
			parsed, err := uuid.Parse(v.(string))
			if err != nil {
				return nil, castErr(sat, fragment, from, to, err)
			}
			return parsed, nil
		case row.Blob:
			parsed, err := uuid.FromBytes(v.([]byte))
			if err != nil {
				return nil, castErr(sat, fragment, from, to, err)
			}
			return parsed, nil
		}
	case row.Date, row.DateTime:
		if from == row.Utf8 {
			layout := time.RFC3339
			if to == row.Date {
				layout = "2006-01-02"
			}
			parsed, err := time.Parse(layout, v.(string))
			if err != nil {
				return nil, castErr(sat, fragment, from, to, err)
			}
			return parsed, nil
		}
	case row.Duration, row.Time:
		if from == row.Utf8 {
			parsed, err := time.ParseDuration(v.(string))
			if err != nil {
				return nil, castErr(sat, fragment, from, to, err)
			}
			return parsed, nil
		}
	}

	switch from {
	case row.Utf8:
		if to.IsNumeric() {
			return parseNumeric(to, v.(string), sat, fragment)
		}
	}

	return nil, reifyerr.Cast("unsupported cast", fragment, from.String(), to.String())
}

func castErr(sat Saturation, fragment string, from, to row.Type, err error) error {
	if sat == SaturateUndefined {
		return nil
	}
	return reifyerr.CastWrap(err.Error(), fragment, from.String(), to.String(), err)
}

func stringify(from row.Type, v any) (any, error) {
	switch from {
	case row.Bool:
		return strconv.FormatBool(v.(bool)), nil
	case row.Utf8:
		return v, nil
	case row.Blob:
		return string(v.([]byte)), nil
	case row.Float4, row.Float8:
		f, err := asFloat(v)
		if err != nil {
			return nil, err
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	case row.Uuid4, row.Uuid7:
		return v.(uuid.UUID).String(), nil
	case row.Date, row.DateTime:
		return v.(time.Time).Format(time.RFC3339), nil
	case row.Duration, row.Time:
		return v.(time.Duration).String(), nil
	default:
		if from.IsNumeric() {
			bi, err := ToBigInt(v)
			if err != nil {
				return nil, err
			}
			return bi.String(), nil
		}
		return fmt.Sprintf("%v", v), nil
	}
}

func parseNumeric(to row.Type, s string, sat Saturation, fragment string) (any, error) {
	if to == row.Float4 || to == row.Float8 {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, castErr(sat, fragment, row.Utf8, to, err)
		}
		return f, nil
	}
	bi, ok := new(big.Int).SetString(s, 10)
	if !ok {
		if sat == SaturateUndefined {
			return nil, nil
		}
		return nil, reifyerr.Cast("not an integer", fragment, row.Utf8.String(), to.String())
	}
	if unboundedInt(to) {
		return FromBigInt(to, bi), nil
	}
	min, max := typeBounds(to)
	if bi.Cmp(min) < 0 || bi.Cmp(max) > 0 {
		if sat == SaturateError {
			return nil, reifyerr.Overflow(fragment)
		}
		return nil, nil
	}
	return FromBigInt(to, bi), nil
}

func castNumeric(from, to row.Type, v any, sat Saturation, fragment string) (any, error) {
	if to == row.Float4 || to == row.Float8 {
		f, err := asFloat(v)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	if from == row.Float4 || from == row.Float8 {
		f, err := asFloat(v)
		if err != nil {
			return nil, err
		}
		bi, _ := big.NewFloat(f).Int(nil)
		return saturateTo(to, bi, sat, fragment)
	}
	bi, err := ToBigInt(v)
	if err != nil {
		return nil, err
	}
	return saturateTo(to, bi, sat, fragment)
}

func saturateTo(to row.Type, bi *big.Int, sat Saturation, fragment string) (any, error) {
	if unboundedInt(to) {
		return FromBigInt(to, bi), nil
	}
	min, max := typeBounds(to)
	if bi.Cmp(min) < 0 || bi.Cmp(max) > 0 {
		if sat == SaturateError {
			return nil, reifyerr.Overflow(fragment)
		}
		return nil, nil
	}
	return FromBigInt(to, bi), nil
}
