package exec

import (
	"testing"

	"github.com/reifydb/reifydb/internal/expr"
	"github.com/reifydb/reifydb/internal/kv"
	"github.com/reifydb/reifydb/internal/row"
)

func TestProjectEvaluatesOutputs(t *testing.T) {
	mgr := newTestManager(t)
	table := kv.SourceTableID(3)
	layout := row.NewLayout([]row.Type{row.Int4})
	q := seedTable(t, mgr, table, layout, [][]any{{int64(10)}, {int64(20)}})
	defer q.Close()

	nl, _ := row.NewNamedLayout([]string{"n"}, []row.Type{row.Int4})
	scan := &Scan{Table: table, Layout: nl, End: []byte{0xFF}}
	p := &Project{
		Child: scan,
		Outputs: []Output{
			{Name: "doubled", Type: row.Int8, Expr: expr.Binary{Op: expr.OpMul, Left: expr.ColumnRef{Name: "n"}, Right: expr.Literal{Type: row.Int4, Value: int64(2)}}},
		},
	}
	if err := p.Initialize(q); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	var results []int64
	for {
		b, err := p.Next(q)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if b == nil {
			break
		}
		for _, v := range b.Columns[0].Values {
			results = append(results, v.(int64))
		}
	}
	if len(results) != 2 || results[0] != 20 || results[1] != 40 {
		t.Fatalf("got %v, want [20 40]", results)
	}
}
