package exec

import (
	"github.com/reifydb/reifydb/internal/expr"
	"github.com/reifydb/reifydb/internal/txn"
)

// JoinStrategy names the join kind (spec.md §4.J "Joins use this strategy").
type JoinStrategy string

const (
	JoinInner JoinStrategy = "inner"
	JoinLeft  JoinStrategy = "left"
)

// Join is a hash join: the Right child is drained fully and indexed by its
// key expression before the Left child is streamed and probed, the
// strategy spec.md §4.J names for both the flow and executor halves of the
// join operator.
type Join struct {
	Left, Right        Node
	Strategy           JoinStrategy
	LeftKey, RightKey  expr.Expr
	rightCols          []expr.Column
	rightIndex         map[string][]int
	built              bool
}

func (j *Join) Initialize(q *txn.Query) error {
	if err := j.Left.Initialize(q); err != nil {
		return err
	}
	return j.Right.Initialize(q)
}

func (j *Join) Headers() []Header {
	return append(append([]Header{}, j.Left.Headers()...), j.Right.Headers()...)
}

func (j *Join) Next(q *txn.Query) (*Batch, error) {
	if !j.built {
		if err := j.buildRight(q); err != nil {
			return nil, err
		}
		j.built = true
	}
	for {
		lb, err := j.Left.Next(q)
		if err != nil {
			return nil, err
		}
		if lb == nil {
			return nil, nil
		}
		key, err := j.LeftKey.Eval(lb)
		if err != nil {
			return nil, err
		}
		out, err := j.probe(lb, key)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
	}
}

func (j *Join) buildRight(q *txn.Query) error {
	j.rightIndex = map[string][]int{}
	var rowIdx int
	for {
		rb, err := j.Right.Next(q)
		if err != nil {
			return err
		}
		if rb == nil {
			break
		}
		key, err := j.RightKey.Eval(rb)
		if err != nil {
			return err
		}
		if j.rightCols == nil {
			j.rightCols = make([]expr.Column, len(rb.Columns))
			for c, col := range rb.Columns {
				j.rightCols[c] = expr.Column{Name: col.Name, Type: col.Type}
			}
		}
		for r := 0; r < rb.Width(); r++ {
			k, ok := key.Values[r].(string)
			if !ok {
				continue
			}
			for c := range j.rightCols {
				j.rightCols[c].Values = append(j.rightCols[c].Values, rb.Columns[c].Values[r])
			}
			j.rightIndex[k] = append(j.rightIndex[k], rowIdx)
			rowIdx++
		}
	}
	return nil
}

func (j *Join) probe(lb *Batch, leftKey expr.Column) (*Batch, error) {
	width := len(lb.Columns) + len(j.rightCols)
	out := make([]expr.Column, width)
	for c, col := range lb.Columns {
		out[c] = expr.Column{Name: col.Name, Type: col.Type}
	}
	for c, col := range j.rightCols {
		out[len(lb.Columns)+c] = expr.Column{Name: col.Name, Type: col.Type}
	}

	for r := 0; r < lb.Width(); r++ {
		k, ok := leftKey.Values[r].(string)
		var matches []int
		if ok {
			matches = j.rightIndex[k]
		}
		if len(matches) == 0 {
			if j.Strategy != JoinLeft {
				continue
			}
			for c := range lb.Columns {
				out[c].Values = append(out[c].Values, lb.Columns[c].Values[r])
			}
			for c := range j.rightCols {
				out[len(lb.Columns)+c].Values = append(out[len(lb.Columns)+c].Values, nil)
			}
			continue
		}
		for _, ri := range matches {
			for c := range lb.Columns {
				out[c].Values = append(out[c].Values, lb.Columns[c].Values[r])
			}
			for c := range j.rightCols {
				out[len(lb.Columns)+c].Values = append(out[len(lb.Columns)+c].Values, j.rightCols[c].Values[ri])
			}
		}
	}
	if out[0].Len() == 0 {
		return nil, nil
	}
	return &Batch{Columns: out}, nil
}
