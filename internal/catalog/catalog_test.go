package catalog

import (
	"testing"

	"github.com/reifydb/reifydb/internal/keycode"
	"github.com/reifydb/reifydb/internal/kv"
	"github.com/reifydb/reifydb/internal/mvcc"
	"github.com/reifydb/reifydb/internal/row"
	"github.com/reifydb/reifydb/internal/txn"
	"github.com/reifydb/reifydb/internal/version"
)

func newTestEnv(t *testing.T) (*txn.Manager, *Catalog) {
	t.Helper()
	backend := kv.NewMemoryBackend()
	store := mvcc.NewStore(backend)
	versions, err := version.NewProvider(backend)
	if err != nil {
		t.Fatalf("new version provider: %v", err)
	}
	oracle := txn.NewOracle(versions, store, kv.CdcTable, nil)
	return txn.NewManager(store, oracle), New()
}

func TestCreateNamespaceAndLookup(t *testing.T) {
	mgr, cat := newTestEnv(t)

	cmd := mgr.BeginCommand(txn.Optimistic)
	ctx := cat.Begin(cmd)
	ns, err := ctx.CreateNamespace("demo")
	if err != nil {
		t.Fatalf("create namespace: %v", err)
	}
	if ns.ID == 0 {
		t.Fatal("expected nonzero namespace id")
	}
	v, err := cmd.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	ctx.Publish(v)

	q := mgr.BeginQuery()
	defer q.Close()
	readCmd := mgr.BeginCommand(txn.Optimistic)
	readCtx := cat.Begin(readCmd)
	found, ok, err := readCtx.FindNamespaceByName("demo")
	if err != nil || !ok {
		t.Fatalf("expected to find namespace by name, ok=%v err=%v", ok, err)
	}
	if found.ID != ns.ID {
		t.Fatalf("expected id %d, got %d", ns.ID, found.ID)
	}
}

func TestCreateNamespaceDuplicateRejected(t *testing.T) {
	mgr, cat := newTestEnv(t)

	cmd := mgr.BeginCommand(txn.Optimistic)
	ctx := cat.Begin(cmd)
	if _, err := ctx.CreateNamespace("demo"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := ctx.CreateNamespace("demo"); err == nil {
		t.Fatal("expected duplicate namespace name to be rejected within same transaction")
	}
}

func TestCreateTableWithColumnsAndPrimaryKey(t *testing.T) {
	mgr, cat := newTestEnv(t)

	cmd := mgr.BeginCommand(txn.Optimistic)
	ctx := cat.Begin(cmd)
	ns, err := ctx.CreateNamespace("demo")
	if err != nil {
		t.Fatalf("create namespace: %v", err)
	}

	cols := []ColumnSpec{
		{Name: "id", Type: row.Int8},
		{Name: "name", Type: row.Utf8},
	}
	table, colDefs, err := ctx.CreateTable(ns.ID, "users", cols, []string{"id"})
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	if len(colDefs) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(colDefs))
	}

	v, err := cmd.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	ctx.Publish(v)

	readCmd := mgr.BeginCommand(txn.Optimistic)
	readCtx := cat.Begin(readCmd)
	listed, err := readCtx.ListColumns(table.ID)
	if err != nil {
		t.Fatalf("list columns: %v", err)
	}
	if len(listed) != 2 || listed[0].Name != "id" || listed[1].Name != "name" {
		t.Fatalf("unexpected column order: %+v", listed)
	}
}

func TestCreateTablePrimaryKeyMustReferenceExistingColumn(t *testing.T) {
	mgr, cat := newTestEnv(t)
	cmd := mgr.BeginCommand(txn.Optimistic)
	ctx := cat.Begin(cmd)
	ns, _ := ctx.CreateNamespace("demo")

	_, _, err := ctx.CreateTable(ns.ID, "users", []ColumnSpec{{Name: "id", Type: row.Int8}}, []string{"missing"})
	if err == nil {
		t.Fatal("expected error for primary key referencing nonexistent column")
	}
}

func TestAlterTableAddColumn(t *testing.T) {
	mgr, cat := newTestEnv(t)
	cmd := mgr.BeginCommand(txn.Optimistic)
	ctx := cat.Begin(cmd)
	ns, _ := ctx.CreateNamespace("demo")
	table, _, err := ctx.CreateTable(ns.ID, "users", []ColumnSpec{{Name: "id", Type: row.Int8}}, nil)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}

	col, err := ctx.AlterTableAddColumn(ns.ID, table.ID, ColumnSpec{Name: "email", Type: row.Utf8})
	if err != nil {
		t.Fatalf("alter table: %v", err)
	}
	if col.Position != 1 {
		t.Fatalf("expected new column at position 1, got %d", col.Position)
	}

	cols, err := ctx.ListColumns(table.ID)
	if err != nil {
		t.Fatalf("list columns: %v", err)
	}
	if len(cols) != 2 {
		t.Fatalf("expected 2 columns after alter, got %d", len(cols))
	}
}

func TestCreateViewBindsToFlow(t *testing.T) {
	mgr, cat := newTestEnv(t)
	cmd := mgr.BeginCommand(txn.Optimistic)
	ctx := cat.Begin(cmd)
	ns, _ := ctx.CreateNamespace("demo")

	flow, err := ctx.CreateFlow("v_flow", nil, nil)
	if err != nil {
		t.Fatalf("create flow: %v", err)
	}
	view, err := ctx.CreateView(ns.ID, "active_users", flow.ID)
	if err != nil {
		t.Fatalf("create view: %v", err)
	}
	if view.FlowID != flow.ID {
		t.Fatalf("expected view bound to flow %d, got %d", flow.ID, view.FlowID)
	}
}

func TestCreateFlowWithNodesAndEdges(t *testing.T) {
	mgr, cat := newTestEnv(t)
	cmd := mgr.BeginCommand(txn.Optimistic)
	ctx := cat.Begin(cmd)

	nodes := []FlowNodeDef{
		{Kind: FlowNodeSource},
		{Kind: FlowNodeFilter},
	}
	flow, err := ctx.CreateFlow("f1", nodes, nil)
	if err != nil {
		t.Fatalf("create flow: %v", err)
	}
	if nodes[0].ID == 0 || nodes[1].ID == 0 || nodes[0].ID == nodes[1].ID {
		t.Fatalf("expected distinct allocated node ids, got %+v", nodes)
	}
	if nodes[0].FlowID != flow.ID || nodes[1].FlowID != flow.ID {
		t.Fatalf("expected nodes stamped with owning flow id %d, got %+v", flow.ID, nodes)
	}

	edges := []FlowEdgeDef{{From: nodes[0].ID, To: nodes[1].ID}}
	flow2, err := ctx.CreateFlow("f2", nil, edges)
	if err != nil {
		t.Fatalf("create flow2 with edges: %v", err)
	}
	if edges[0].ID == 0 || edges[0].FlowID != flow2.ID {
		t.Fatalf("expected edge stamped with allocated id and owning flow id, got %+v", edges[0])
	}
}

func TestListAndDeleteFlowEdges(t *testing.T) {
	mgr, cat := newTestEnv(t)
	cmd := mgr.BeginCommand(txn.Optimistic)
	ctx := cat.Begin(cmd)

	nodes := []FlowNodeDef{{Kind: FlowNodeSource}, {Kind: FlowNodeSink}}
	flow, err := ctx.CreateFlow("f", nodes, nil)
	if err != nil {
		t.Fatalf("create flow: %v", err)
	}
	edges := []FlowEdgeDef{{From: nodes[0].ID, To: nodes[1].ID}}
	flow, err = ctx.CreateFlow("f2", nil, edges)
	if err != nil {
		t.Fatalf("create flow with edges: %v", err)
	}

	listed, err := ctx.ListFlowEdges(flow.ID)
	if err != nil {
		t.Fatalf("list edges: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(listed))
	}

	if err := ctx.DeleteFlowEdge(flow.ID, listed[0].ID); err != nil {
		t.Fatalf("delete edge: %v", err)
	}
	remaining, err := ctx.ListFlowEdges(flow.ID)
	if err != nil {
		t.Fatalf("list edges after delete: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected 0 edges after delete, got %d", len(remaining))
	}
}

func TestDictionaryEncodeDecodeRoundTrip(t *testing.T) {
	mgr, _ := newTestEnv(t)
	cmd := mgr.BeginCommand(txn.Optimistic)

	idx1, err := DictionaryEncode(cmd, 42, []byte("red"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	idx2, err := DictionaryEncode(cmd, 42, []byte("red"))
	if err != nil {
		t.Fatalf("encode again: %v", err)
	}
	if idx1 != idx2 {
		t.Fatalf("expected stable index for repeated value, got %d and %d", idx1, idx2)
	}

	idx3, err := DictionaryEncode(cmd, 42, []byte("blue"))
	if err != nil {
		t.Fatalf("encode blue: %v", err)
	}
	if idx3 == idx1 {
		t.Fatal("expected distinct index for distinct value")
	}

	decoded, err := DictionaryDecode(cmd, 42, idx1)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(decoded) != "red" {
		t.Fatalf("expected 'red', got %q", decoded)
	}
}

func TestDictionaryGCRemovesUnreferenced(t *testing.T) {
	mgr, _ := newTestEnv(t)
	cmd := mgr.BeginCommand(txn.Optimistic)

	redIdx, _ := DictionaryEncode(cmd, 7, []byte("red"))
	blueIdx, _ := DictionaryEncode(cmd, 7, []byte("blue"))

	if err := DictionaryGC(cmd, 7, map[uint32]bool{redIdx: true}); err != nil {
		t.Fatalf("gc: %v", err)
	}

	if _, err := DictionaryDecode(cmd, 7, redIdx); err != nil {
		t.Fatalf("expected red to survive gc: %v", err)
	}
	if _, err := DictionaryDecode(cmd, 7, blueIdx); err == nil {
		t.Fatal("expected blue to be collected")
	}
}

func TestCatalogCacheServesReadsWithoutStorageFallback(t *testing.T) {
	mgr, cat := newTestEnv(t)

	cmd := mgr.BeginCommand(txn.Optimistic)
	ctx := cat.Begin(cmd)
	ns, err := ctx.CreateNamespace("demo")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	v, err := cmd.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	ctx.Publish(v)

	got, found := cat.cache.get(string(keycode.EncodeNamespace(ns.ID)), v)
	if !found {
		t.Fatal("expected materialized cache to hold the committed namespace")
	}
	if got == nil {
		t.Fatal("expected non-nil cached definition")
	}
}
