package exec

import "github.com/reifydb/reifydb/internal/txn"

// Take passes through up to N rows total across every batch it emits, then
// reports exhaustion (spec.md §4.K "Take ... pass-through" bounded by a row
// limit).
type Take struct {
	Child Node
	N     int

	taken int
}

func (t *Take) Initialize(q *txn.Query) error { return t.Child.Initialize(q) }
func (t *Take) Headers() []Header             { return t.Child.Headers() }

func (t *Take) Next(q *txn.Query) (*Batch, error) {
	if t.taken >= t.N {
		return nil, nil
	}
	b, err := t.Child.Next(q)
	if err != nil || b == nil {
		return nil, err
	}
	remaining := t.N - t.taken
	width := b.Width()
	if width <= remaining {
		t.taken += width
		return b, nil
	}
	out := make([]Column, len(b.Columns))
	for i, c := range b.Columns {
		out[i] = Column{Name: c.Name, Type: c.Type, Values: c.Values[:remaining]}
	}
	t.taken += remaining
	return &Batch{Columns: out}, nil
}
