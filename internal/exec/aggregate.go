package exec

import (
	"fmt"
	"strconv"

	"github.com/reifydb/reifydb/internal/expr"
	"github.com/reifydb/reifydb/internal/reifyerr"
	"github.com/reifydb/reifydb/internal/row"
	"github.com/reifydb/reifydb/internal/txn"
)

// AggregateExpr names one output aggregate column, grounded on the
// teacher's GROUP BY evaluation (internal/engine exec.go's "COUNT", "SUM",
// "AVG", "MIN", "MAX" aggregate dispatch) but driven by the same
// Accumulator contract internal/flow's incremental Aggregate operator uses,
// so both halves of spec.md §4.J/§4.K share one aggregation model — this
// one evaluated once over a fully materialized group instead of
// incrementally per Diff.
type AggregateExpr struct {
	Name string
	Acc  flowAccumulator
	Type row.Type
}

// flowAccumulator is internal/flow.Accumulator's method set without Remove,
// duplicated here (rather than imported) to keep internal/exec from depending on
// internal/flow: both packages depend only on internal/expr's concrete
// accumulator types, which satisfy this shape structurally.
type flowAccumulator interface {
	Zero() []byte
	Add(state []byte, r row.Values) ([]byte, error)
	Result(state []byte) (row.Values, error)
}

// Aggregate groups its child's rows by GroupBy and evaluates each
// AggregateExpr per group, aggregate-only valid at this node per spec.md
// §4.K ("aggregates valid only inside Aggregate operator"). Like Sort, it
// must see every input row before it can emit anything.
type Aggregate struct {
	Child   Node
	GroupBy []expr.Expr
	Outputs []AggregateExpr

	groupOrder []string
	groupKeys  map[string][]any
	states     map[string][][]byte
	inLayout   *row.Layout
	inTypes    []row.Type
	emitted    bool
}

func (a *Aggregate) Initialize(q *txn.Query) error { return a.Child.Initialize(q) }

func (a *Aggregate) Headers() []Header {
	hs := make([]Header, len(a.GroupBy)+len(a.Outputs))
	for i := range a.GroupBy {
		hs[i] = Header{Name: "group_" + itoa(i), Type: row.Utf8}
	}
	for i, o := range a.Outputs {
		hs[len(a.GroupBy)+i] = Header{Name: o.Name, Type: o.Type}
	}
	return hs
}

func (a *Aggregate) Next(q *txn.Query) (*Batch, error) {
	if a.emitted {
		return nil, nil
	}
	if err := a.drain(q); err != nil {
		return nil, err
	}
	a.emitted = true
	if len(a.groupOrder) == 0 {
		return nil, nil
	}

	groupCols := make([]expr.Column, len(a.GroupBy))
	for i := range a.GroupBy {
		groupCols[i] = expr.Column{Name: "group_" + itoa(i), Type: row.Utf8, Values: make([]any, len(a.groupOrder))}
	}
	outCols := make([]expr.Column, len(a.Outputs))
	for i, o := range a.Outputs {
		outCols[i] = expr.Column{Name: o.Name, Type: o.Type, Values: make([]any, len(a.groupOrder))}
	}

	for gi, key := range a.groupOrder {
		keyVals := a.groupKeys[key]
		for i := range a.GroupBy {
			groupCols[i].Values[gi] = keyVals[i]
		}
		states := a.states[key]
		for oi, o := range a.Outputs {
			result, err := o.Acc.Result(states[oi])
			if err != nil {
				return nil, err
			}
			vals, err := row.Decode(row.NewLayout([]row.Type{o.Type}), result)
			if err != nil {
				return nil, reifyerr.Storage(err)
			}
			outCols[oi].Values[gi] = vals[0]
		}
	}

	return &Batch{Columns: append(groupCols, outCols...)}, nil
}

func (a *Aggregate) drain(q *txn.Query) error {
	a.groupKeys = map[string][]any{}
	a.states = map[string][][]byte{}

	for {
		b, err := a.Child.Next(q)
		if err != nil {
			return err
		}
		if b == nil {
			break
		}
		if a.inTypes == nil {
			a.inTypes = make([]row.Type, len(b.Columns))
			for c, col := range b.Columns {
				a.inTypes[c] = col.Type
			}
			a.inLayout = row.NewLayout(a.inTypes)
		}

		groupVals := make([]expr.Column, len(a.GroupBy))
		for i, g := range a.GroupBy {
			gc, err := g.Eval(b)
			if err != nil {
				return err
			}
			groupVals[i] = gc
		}

		for r := 0; r < b.Width(); r++ {
			keyParts := make([]any, len(a.GroupBy))
			var key string
			for i := range a.GroupBy {
				keyParts[i] = groupVals[i].Values[r]
				key += typedKeyPart(keyParts[i]) + "\x00"
			}
			if _, seen := a.groupKeys[key]; !seen {
				a.groupKeys[key] = keyParts
				a.groupOrder = append(a.groupOrder, key)
				states := make([][]byte, len(a.Outputs))
				for oi, o := range a.Outputs {
					states[oi] = o.Acc.Zero()
				}
				a.states[key] = states
			}

			rowVals := make([]any, len(b.Columns))
			for c, col := range b.Columns {
				rowVals[c] = col.Values[r]
			}
			enc, err := row.Encode(a.inLayout, rowVals)
			if err != nil {
				return reifyerr.Storage(err)
			}
			states := a.states[key]
			for oi, o := range a.Outputs {
				states[oi], err = o.Acc.Add(states[oi], enc)
				if err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func typedKeyPart(v any) string {
	if v == nil {
		return "\x01"
	}
	return fmt.Sprintf("%v", v)
}

func itoa(i int) string { return strconv.Itoa(i) }
