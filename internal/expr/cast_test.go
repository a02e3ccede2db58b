package expr

import (
	"testing"

	"github.com/reifydb/reifydb/internal/row"
)

func TestCastIntToFloat(t *testing.T) {
	b := batchOf(Column{Name: "a", Type: row.Int4, Values: []any{int64(7)}})
	c := Cast{Name: "a", Target: row.Float8, Inner: ColumnRef{"a"}}
	out, err := c.Eval(b)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if out.Values[0].(float64) != 7.0 {
		t.Fatalf("got %v, want 7.0", out.Values[0])
	}
}

func TestCastNumericOverflowSaturateError(t *testing.T) {
	b := batchOf(Column{Name: "a", Type: row.Int4, Values: []any{int64(1000)}})
	c := Cast{Name: "a", Target: row.Int1, Inner: ColumnRef{"a"}, Saturation: SaturateError, SourceFragment: "CAST(a AS Int1)"}
	if _, err := c.Eval(b); err == nil {
		t.Fatalf("expected overflow error")
	}
}

func TestCastNumericOverflowSaturateUndefined(t *testing.T) {
	b := batchOf(Column{Name: "a", Type: row.Int4, Values: []any{int64(1000)}})
	c := Cast{Name: "a", Target: row.Int1, Inner: ColumnRef{"a"}, Saturation: SaturateUndefined}
	out, err := c.Eval(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Values[0] != nil {
		t.Fatalf("expected Undefined, got %v", out.Values[0])
	}
}

func TestCastToUtf8(t *testing.T) {
	b := batchOf(Column{Name: "a", Type: row.Int4, Values: []any{int64(42), nil}})
	c := Cast{Name: "a", Target: row.Utf8, Inner: ColumnRef{"a"}}
	out, err := c.Eval(b)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if out.Values[0] != "42" {
		t.Fatalf("got %v, want \"42\"", out.Values[0])
	}
	if out.Values[1] != nil {
		t.Fatalf("Undefined input should stay Undefined")
	}
}

func TestCastUtf8ToInt(t *testing.T) {
	b := batchOf(Column{Name: "a", Type: row.Utf8, Values: []any{"123"}})
	c := Cast{Name: "a", Target: row.Int4, Inner: ColumnRef{"a"}}
	out, err := c.Eval(b)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if out.Values[0].(int64) != 123 {
		t.Fatalf("got %v, want 123", out.Values[0])
	}
}
