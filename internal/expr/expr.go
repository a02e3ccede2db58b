package expr

import "github.com/reifydb/reifydb/internal/row"

// Expr is one node of a compiled expression tree, evaluated against a
// whole Batch at a time (spec.md §4.K "Expression evaluation").
type Expr interface {
	Eval(b *Batch) (Column, error)
}

// Literal broadcasts a constant value to the batch width.
type Literal struct {
	Name  string
	Type  row.Type
	Value any // nil means Undefined
}

func (l Literal) Eval(b *Batch) (Column, error) {
	if l.Value == nil {
		return UndefinedColumn(l.Name, l.Type, b.Width()), nil
	}
	return Broadcast(l.Name, l.Type, l.Value, b.Width()), nil
}

// ColumnRef dereferences a column by name against the batch.
type ColumnRef struct {
	Name string
}

func (r ColumnRef) Eval(b *Batch) (Column, error) {
	return b.Column(r.Name)
}
