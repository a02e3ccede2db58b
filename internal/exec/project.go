package exec

import (
	"github.com/reifydb/reifydb/internal/expr"
	"github.com/reifydb/reifydb/internal/row"
	"github.com/reifydb/reifydb/internal/txn"
)

// Output names one projected column.
type Output struct {
	Name string
	Expr expr.Expr
	Type row.Type
}

// Project evaluates a fixed list of output expressions against each child
// batch, replacing its columns (spec.md §4.K Map/Project node).
type Project struct {
	Child   Node
	Outputs []Output
}

func (p *Project) Initialize(q *txn.Query) error { return p.Child.Initialize(q) }

func (p *Project) Headers() []Header {
	hs := make([]Header, len(p.Outputs))
	for i, o := range p.Outputs {
		hs[i] = Header{Name: o.Name, Type: o.Type}
	}
	return hs
}

func (p *Project) Next(q *txn.Query) (*Batch, error) {
	b, err := p.Child.Next(q)
	if err != nil || b == nil {
		return nil, err
	}
	cols := make([]expr.Column, len(p.Outputs))
	for i, o := range p.Outputs {
		c, err := o.Expr.Eval(b)
		if err != nil {
			return nil, err
		}
		c.Name = o.Name
		cols[i] = c
	}
	return &Batch{Columns: cols}, nil
}
