package expr

import (
	"testing"

	"github.com/reifydb/reifydb/internal/row"
)

func TestBroadcastAndUndefined(t *testing.T) {
	c := Broadcast("x", row.Int4, int64(7), 3)
	if c.Len() != 3 {
		t.Fatalf("len = %d, want 3", c.Len())
	}
	for i := 0; i < 3; i++ {
		if !c.Defined(i) {
			t.Fatalf("row %d should be defined", i)
		}
	}

	u := UndefinedColumn("y", row.Int4, 2)
	if u.Defined(0) || u.Defined(1) {
		t.Fatalf("undefined column reports defined rows")
	}
}

func TestBatchColumnLookup(t *testing.T) {
	b := &Batch{Columns: []Column{
		Broadcast("a", row.Int4, int64(1), 2),
		Broadcast("b", row.Utf8, "x", 2),
	}}
	if b.Width() != 2 {
		t.Fatalf("width = %d, want 2", b.Width())
	}
	c, err := b.Column("b")
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	if c.Values[0] != "x" {
		t.Fatalf("got %v, want x", c.Values[0])
	}
	if _, err := b.Column("missing"); err == nil {
		t.Fatalf("expected error for unknown column")
	}
}
