package expr

import (
	"github.com/reifydb/reifydb/internal/reifyerr"
	"github.com/reifydb/reifydb/internal/row"
)

// RowBatch decodes a single encoded row into a width-1 Batch, so a
// column-oriented Expr tree can evaluate against one row at a time. This is
// how this package bridges into internal/flow's row-at-a-time operators
// (Predicate/Project/KeyFunc/RowKeyFunc), which a compiler stage binds by
// name into flow.Bindings — without either package importing the other,
// the named-function-value conventions line up by construction.
func RowBatch(nl *row.NamedLayout, r row.Values) (*Batch, error) {
	vals, err := row.Decode(nl.Layout, r)
	if err != nil {
		return nil, reifyerr.Storage(err)
	}
	cols := make([]Column, nl.Len())
	for i := 0; i < nl.Len(); i++ {
		cols[i] = Column{Name: nl.Name(i), Type: nl.Type(i), Values: []any{vals[i]}}
	}
	return &Batch{Columns: cols}, nil
}

// BindPredicate compiles e into a row-at-a-time predicate over rows encoded
// with nl. The result is assignable to internal/flow.Predicate by Go's
// usual-assignability rule for identical underlying function types.
func BindPredicate(nl *row.NamedLayout, e Expr) func(row.Values) (bool, error) {
	return func(r row.Values) (bool, error) {
		b, err := RowBatch(nl, r)
		if err != nil {
			return false, err
		}
		col, err := e.Eval(b)
		if err != nil {
			return false, err
		}
		v := col.Values[0]
		bv, ok := v.(bool)
		return ok && bv, nil
	}
}

// BindProject compiles a list of named output expressions into a row-at-a-
// time projection over rows encoded with nl, producing rows encoded with
// outLayout in the same order as exprs.
func BindProject(nl *row.NamedLayout, exprs []Expr, outTypes []row.Type) func(row.Values) (row.Values, error) {
	outLayout := row.NewLayout(outTypes)
	return func(r row.Values) (row.Values, error) {
		b, err := RowBatch(nl, r)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(exprs))
		for i, e := range exprs {
			col, err := e.Eval(b)
			if err != nil {
				return nil, err
			}
			out[i] = col.Values[0]
		}
		return row.Encode(outLayout, out)
	}
}

// BindKeyFunc compiles e (expected to evaluate to a Utf8 value) into a
// row-at-a-time grouping/distinct key function.
func BindKeyFunc(nl *row.NamedLayout, e Expr) func(row.Values) (string, error) {
	return func(r row.Values) (string, error) {
		b, err := RowBatch(nl, r)
		if err != nil {
			return "", err
		}
		col, err := e.Eval(b)
		if err != nil {
			return "", err
		}
		v := col.Values[0]
		s, err := stringify(col.Type, v)
		if err != nil {
			return "", err
		}
		if s == nil {
			return "", nil
		}
		return s.(string), nil
	}
}
