// Package expr implements the columnar expression evaluator (spec.md
// §4.K "Expression evaluation"): literals, column references, binary
// arithmetic with a fixed numeric promotion lattice, casts, IF/ELSE
// chains, and scalar/aggregate function dispatch, all operating on
// whole Column batches rather than one row at a time.
package expr

import "github.com/reifydb/reifydb/internal/row"

// Column is one named, typed batch of values (spec.md §4.K "Batches carry
// Columns = ordered list of typed Column{name, data}"). Values follows the
// same "nil means Undefined" convention internal/row.Decode already uses,
// so a Column can be built directly from a row.Layout scan without a
// separate defined-bitvec representation.
type Column struct {
	Name   string
	Type   row.Type
	Values []any
}

// Len reports the batch width (row count) of the column.
func (c Column) Len() int { return len(c.Values) }

// Defined reports whether the value at index i is present (not Undefined).
func (c Column) Defined(i int) bool { return c.Values[i] != nil }

// Broadcast builds a Column of width n where every row holds the same
// value (spec.md §4.K "Constants broadcast a literal value to the batch
// width").
func Broadcast(name string, t row.Type, v any, n int) Column {
	vals := make([]any, n)
	for i := range vals {
		vals[i] = v
	}
	return Column{Name: name, Type: t, Values: vals}
}

// UndefinedColumn builds a Column of width n whose every row is Undefined.
func UndefinedColumn(name string, t row.Type, n int) Column {
	return Column{Name: name, Type: t, Values: make([]any, n)}
}
