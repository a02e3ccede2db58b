package exec

import (
	"github.com/reifydb/reifydb/internal/expr"
	"github.com/reifydb/reifydb/internal/txn"
)

// Filter passes batches through unchanged except for rows whose Predicate
// evaluates false or Undefined (spec.md §4.K "Filter ... pass-through" on
// the surviving rows; an empty child batch is skipped entirely rather than
// emitted as a zero-width batch, so a parent never has to special-case it).
type Filter struct {
	Child     Node
	Predicate expr.Expr
}

func (f *Filter) Initialize(q *txn.Query) error { return f.Child.Initialize(q) }
func (f *Filter) Headers() []Header             { return f.Child.Headers() }

func (f *Filter) Next(q *txn.Query) (*Batch, error) {
	for {
		b, err := f.Child.Next(q)
		if err != nil {
			return nil, err
		}
		if b == nil {
			return nil, nil
		}
		cond, err := f.Predicate.Eval(b)
		if err != nil {
			return nil, err
		}
		keep := make([]int, 0, b.Width())
		for i, v := range cond.Values {
			if bv, ok := v.(bool); ok && bv {
				keep = append(keep, i)
			}
		}
		if len(keep) == 0 {
			continue
		}
		out := make([]expr.Column, len(b.Columns))
		for c, col := range b.Columns {
			vals := make([]any, len(keep))
			for j, i := range keep {
				vals[j] = col.Values[i]
			}
			out[c] = expr.Column{Name: col.Name, Type: col.Type, Values: vals}
		}
		return &Batch{Columns: out}, nil
	}
}
