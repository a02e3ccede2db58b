package exec

import (
	"testing"

	"github.com/reifydb/reifydb/internal/expr"
	"github.com/reifydb/reifydb/internal/kv"
	"github.com/reifydb/reifydb/internal/row"
)

func TestAggregateSumByGroup(t *testing.T) {
	mgr := newTestManager(t)
	table := kv.SourceTableID(20)
	layout := row.NewLayout([]row.Type{row.Utf8, row.Int4})
	q := seedTable(t, mgr, table, layout, [][]any{
		{"a", int64(1)},
		{"a", int64(2)},
		{"b", int64(10)},
	})
	defer q.Close()

	nl, _ := row.NewNamedLayout([]string{"category", "amount"}, []row.Type{row.Utf8, row.Int4})
	scan := &Scan{Table: table, Layout: nl, End: []byte{0xFF}}

	inLayout := row.NewLayout([]row.Type{row.Utf8, row.Int4})
	agg := &Aggregate{
		Child:   scan,
		GroupBy: []expr.Expr{expr.ColumnRef{Name: "category"}},
		Outputs: []AggregateExpr{
			{Name: "total", Type: row.Int8, Acc: expr.SumAccumulator{Layout: inLayout, Field: 1, OutputType: row.Int8}},
		},
	}
	if err := agg.Initialize(q); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	b, err := agg.Next(q)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if b == nil || b.Width() != 2 {
		t.Fatalf("expected 2 groups, got %v", b)
	}

	totals := map[string]int64{}
	for i := 0; i < b.Width(); i++ {
		group := b.Columns[0].Values[i].(string)
		total := b.Columns[1].Values[i].(int64)
		totals[group] = total
	}
	if totals["a"] != 3 || totals["b"] != 10 {
		t.Fatalf("got %v, want a=3 b=10", totals)
	}
}
