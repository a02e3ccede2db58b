package expr

import (
	"testing"

	"github.com/reifydb/reifydb/internal/row"
)

func TestIfSelectsFirstMatchingBranch(t *testing.T) {
	b := batchOf(Column{Name: "n", Type: row.Int4, Values: []any{int64(1), int64(2), int64(3)}})
	x := If{
		Name: "label",
		Branches: []IfBranch{
			{Condition: Binary{Op: OpEq, Left: ColumnRef{"n"}, Right: Literal{Type: row.Int4, Value: int64(1)}}, Then: Literal{Type: row.Utf8, Value: "one"}},
			{Condition: Binary{Op: OpEq, Left: ColumnRef{"n"}, Right: Literal{Type: row.Int4, Value: int64(2)}}, Then: Literal{Type: row.Utf8, Value: "two"}},
		},
		Else: Literal{Type: row.Utf8, Value: "other"},
	}
	out, err := x.Eval(b)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	want := []any{"one", "two", "other"}
	for i, w := range want {
		if out.Values[i] != w {
			t.Fatalf("row %d = %v, want %v", i, out.Values[i], w)
		}
	}
}

func TestIfWithoutElseLeavesUndefined(t *testing.T) {
	b := batchOf(Column{Name: "n", Type: row.Int4, Values: []any{int64(1), int64(9)}})
	x := If{
		Name: "label",
		Branches: []IfBranch{
			{Condition: Binary{Op: OpEq, Left: ColumnRef{"n"}, Right: Literal{Type: row.Int4, Value: int64(1)}}, Then: Literal{Type: row.Utf8, Value: "one"}},
		},
	}
	out, err := x.Eval(b)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if out.Values[0] != "one" {
		t.Fatalf("row0 = %v, want one", out.Values[0])
	}
	if out.Values[1] != nil {
		t.Fatalf("row1 should be Undefined, got %v", out.Values[1])
	}
}
