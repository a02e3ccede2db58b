package expr

import "github.com/reifydb/reifydb/internal/reifyerr"

// Batch is one column-batch flowing through the executor (spec.md §4.K).
type Batch struct {
	Columns []Column
}

// Width returns the batch's row count, taken from its first column. A
// batch with no columns has width 0.
func (b *Batch) Width() int {
	if len(b.Columns) == 0 {
		return 0
	}
	return b.Columns[0].Len()
}

// Column looks a column up by name (spec.md §4.K "Column references
// dereference by name against the batch").
func (b *Batch) Column(name string) (Column, error) {
	for _, c := range b.Columns {
		if c.Name == name {
			return c, nil
		}
	}
	return Column{}, reifyerr.Schema("unknown column", name)
}
