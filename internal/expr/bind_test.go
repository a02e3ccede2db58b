package expr

import (
	"testing"

	"github.com/reifydb/reifydb/internal/row"
)

func TestBindPredicate(t *testing.T) {
	nl, err := row.NewNamedLayout([]string{"n"}, []row.Type{row.Int4})
	if err != nil {
		t.Fatalf("NewNamedLayout: %v", err)
	}
	pred := BindPredicate(nl, Binary{Op: OpGt, Left: ColumnRef{"n"}, Right: Literal{Type: row.Int4, Value: int64(10)}})

	pass, err := row.Encode(nl.Layout, []any{int64(20)})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	ok, err := pred(pass)
	if err != nil {
		t.Fatalf("pred: %v", err)
	}
	if !ok {
		t.Fatalf("expected 20 > 10 to pass")
	}

	fail, _ := row.Encode(nl.Layout, []any{int64(5)})
	ok, err = pred(fail)
	if err != nil {
		t.Fatalf("pred: %v", err)
	}
	if ok {
		t.Fatalf("expected 5 > 10 to fail")
	}
}

func TestBindProject(t *testing.T) {
	nl, err := row.NewNamedLayout([]string{"n"}, []row.Type{row.Int4})
	if err != nil {
		t.Fatalf("NewNamedLayout: %v", err)
	}
	proj := BindProject(nl, []Expr{
		Binary{Op: OpMul, Left: ColumnRef{"n"}, Right: Literal{Type: row.Int4, Value: int64(2)}},
	}, []row.Type{row.Int8})

	in, _ := row.Encode(nl.Layout, []any{int64(21)})
	out, err := proj(in)
	if err != nil {
		t.Fatalf("proj: %v", err)
	}
	vals, err := row.Decode(row.NewLayout([]row.Type{row.Int8}), out)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if vals[0].(int64) != 42 {
		t.Fatalf("got %v, want 42", vals[0])
	}
}

func TestBindKeyFunc(t *testing.T) {
	nl, err := row.NewNamedLayout([]string{"s"}, []row.Type{row.Utf8})
	if err != nil {
		t.Fatalf("NewNamedLayout: %v", err)
	}
	kf := BindKeyFunc(nl, ColumnRef{"s"})
	in, _ := row.Encode(nl.Layout, []any{"group-a"})
	key, err := kf(in)
	if err != nil {
		t.Fatalf("kf: %v", err)
	}
	if key != "group-a" {
		t.Fatalf("got %q, want group-a", key)
	}
}
