package reifydb

import (
	"testing"

	"github.com/reifydb/reifydb/internal/catalog"
	"github.com/reifydb/reifydb/internal/exec"
	"github.com/reifydb/reifydb/internal/kv"
	"github.com/reifydb/reifydb/internal/row"
	"github.com/reifydb/reifydb/internal/rql"
)

// TestQueryAsAndCommandAsRoundTrip exercises spec.md S1: insert three rows
// through CommandAs, then read them back through QueryAs.
func TestQueryAsAndCommandAsRoundTrip(t *testing.T) {
	e, err := Memory()
	if err != nil {
		t.Fatalf("Memory: %v", err)
	}
	defer e.Close()

	layout := row.NewLayout([]row.Type{row.Int4, row.Utf8})
	nl, err := row.NewNamedLayout([]string{"id", "name"}, []row.Type{row.Int4, row.Utf8})
	if err != nil {
		t.Fatalf("NewNamedLayout: %v", err)
	}

	var tableID uint64
	rows := [][2]any{{int64(1), "alice"}, {int64(2), "bob"}, {int64(3), "charlie"}}

	_, err = e.CommandAs(RootPrincipal(), func(cat *catalog.Transaction) (exec.Node, error) {
		ns, err := cat.CreateNamespace("demo")
		if err != nil {
			return nil, err
		}
		table, _, err := cat.CreateTable(ns.ID, "users", []catalog.ColumnSpec{
			{Name: "id", Type: row.Int4},
			{Name: "name", Type: row.Utf8},
		}, []string{"id"})
		if err != nil {
			return nil, err
		}
		tableID = table.ID

		for _, r := range rows {
			id := r[0].(int64)
			if err := rql.InsertRow(cat.Command(), tableID, []byte{byte(id)}, layout, []any{r[0], r[1]}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("CommandAs (setup): %v", err)
	}

	frame, err := e.QueryAs(RootPrincipal(), rql.Scan(kv.SourceTableID(tableID), nl))
	if err != nil {
		t.Fatalf("QueryAs: %v", err)
	}
	if frame.Width() != 3 {
		t.Fatalf("expected 3 rows, got %d", frame.Width())
	}

	nameCol, err := frame.Column("name")
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	got := map[string]bool{}
	for _, v := range nameCol.Values {
		got[v.(string)] = true
	}
	for _, want := range []string{"alice", "bob", "charlie"} {
		if !got[want] {
			t.Fatalf("missing row %q in %v", want, got)
		}
	}
}

// TestQueryAsFilterAndProject exercises the Scan -> Filter -> Project
// pipeline built entirely from internal/rql helpers.
func TestQueryAsFilterAndProject(t *testing.T) {
	e, err := Memory()
	if err != nil {
		t.Fatalf("Memory: %v", err)
	}
	defer e.Close()

	layout := row.NewLayout([]row.Type{row.Int4, row.Utf8, row.Bool})
	nl, err := row.NewNamedLayout([]string{"id", "name", "active"}, []row.Type{row.Int4, row.Utf8, row.Bool})
	if err != nil {
		t.Fatalf("NewNamedLayout: %v", err)
	}

	var tableID uint64
	rows := [][3]any{
		{int64(1), "alice", true},
		{int64(2), "bob", false},
		{int64(3), "charlie", true},
	}

	_, err = e.CommandAs(RootPrincipal(), func(cat *catalog.Transaction) (exec.Node, error) {
		ns, err := cat.CreateNamespace("demo")
		if err != nil {
			return nil, err
		}
		table, _, err := cat.CreateTable(ns.ID, "users", []catalog.ColumnSpec{
			{Name: "id", Type: row.Int4},
			{Name: "name", Type: row.Utf8},
			{Name: "active", Type: row.Bool},
		}, []string{"id"})
		if err != nil {
			return nil, err
		}
		tableID = table.ID
		for _, r := range rows {
			id := r[0].(int64)
			if err := rql.InsertRow(cat.Command(), tableID, []byte{byte(id)}, layout, []any{r[0], r[1], r[2]}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("CommandAs (setup): %v", err)
	}

	plan := rql.Project(
		rql.Filter(rql.Scan(kv.SourceTableID(tableID), nl), rql.Eq(rql.Col("active"), rql.Lit(row.Bool, true))),
		rql.Out("name", row.Utf8, rql.Col("name")),
	)

	frame, err := e.QueryAs(RootPrincipal(), plan)
	if err != nil {
		t.Fatalf("QueryAs: %v", err)
	}
	if frame.Width() != 2 {
		t.Fatalf("expected 2 active users, got %d: %+v", frame.Width(), frame.Columns)
	}
	names := map[string]bool{}
	for _, v := range frame.Columns[0].Values {
		names[v.(string)] = true
	}
	if !names["alice"] || !names["charlie"] || names["bob"] {
		t.Fatalf("got %v, want {alice, charlie}", names)
	}
}
