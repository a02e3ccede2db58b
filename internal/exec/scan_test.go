package exec

import (
	"testing"

	"github.com/reifydb/reifydb/internal/kv"
	"github.com/reifydb/reifydb/internal/row"
)

func TestScanReadsAllRows(t *testing.T) {
	mgr := newTestManager(t)
	table := kv.SourceTableID(1)
	layout := row.NewLayout([]row.Type{row.Int4, row.Utf8})
	q := seedTable(t, mgr, table, layout, [][]any{
		{int64(1), "a"},
		{int64(2), "b"},
		{int64(3), "c"},
	})
	defer q.Close()

	nl, err := row.NewNamedLayout([]string{"n", "s"}, []row.Type{row.Int4, row.Utf8})
	if err != nil {
		t.Fatalf("NewNamedLayout: %v", err)
	}
	s := &Scan{Table: table, Layout: nl, End: []byte{0xFF}, BatchSize: 2}
	if err := s.Initialize(q); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	var total int
	for {
		b, err := s.Next(q)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if b == nil {
			break
		}
		total += b.Width()
	}
	if total != 3 {
		t.Fatalf("scanned %d rows, want 3", total)
	}
}

func TestScanHeaders(t *testing.T) {
	nl, err := row.NewNamedLayout([]string{"a", "b"}, []row.Type{row.Int4, row.Bool})
	if err != nil {
		t.Fatalf("NewNamedLayout: %v", err)
	}
	s := &Scan{Layout: nl}
	hs := s.Headers()
	if len(hs) != 2 || hs[0].Name != "a" || hs[1].Type != row.Bool {
		t.Fatalf("unexpected headers: %+v", hs)
	}
}
