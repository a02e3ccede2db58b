package exec

import (
	"testing"

	"github.com/reifydb/reifydb/internal/expr"
	"github.com/reifydb/reifydb/internal/kv"
	"github.com/reifydb/reifydb/internal/row"
)

func TestFilterKeepsMatchingRows(t *testing.T) {
	mgr := newTestManager(t)
	table := kv.SourceTableID(2)
	layout := row.NewLayout([]row.Type{row.Int4})
	q := seedTable(t, mgr, table, layout, [][]any{{int64(1)}, {int64(5)}, {int64(9)}})
	defer q.Close()

	nl, _ := row.NewNamedLayout([]string{"n"}, []row.Type{row.Int4})
	scan := &Scan{Table: table, Layout: nl, End: []byte{0xFF}}
	f := &Filter{
		Child:     scan,
		Predicate: expr.Binary{Op: expr.OpGt, Left: expr.ColumnRef{Name: "n"}, Right: expr.Literal{Type: row.Int4, Value: int64(3)}},
	}
	if err := f.Initialize(q); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	var seen []int64
	for {
		b, err := f.Next(q)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if b == nil {
			break
		}
		for _, v := range b.Columns[0].Values {
			seen = append(seen, v.(int64))
		}
	}
	if len(seen) != 2 {
		t.Fatalf("got %v, want 2 rows > 3", seen)
	}
}
