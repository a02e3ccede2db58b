package cdc

import (
	"bytes"
	"testing"

	"github.com/reifydb/reifydb/internal/kv"
	"github.com/reifydb/reifydb/internal/mvcc"
	"github.com/reifydb/reifydb/internal/txn"
	"github.com/reifydb/reifydb/internal/version"
)

func newTestHarness(t *testing.T) (*txn.Manager, kv.Backend) {
	t.Helper()
	backend := kv.NewMemoryBackend()
	store := mvcc.NewStore(backend)
	versions, err := version.NewProvider(backend)
	if err != nil {
		t.Fatalf("new version provider: %v", err)
	}
	oracle := txn.NewOracle(versions, store, kv.CdcTable, NewWriter(store))
	return txn.NewManager(store, oracle), backend
}

func TestRecordsClassifiesInsertUpdateDelete(t *testing.T) {
	mgr, backend := newTestHarness(t)
	table := kv.SourceTableID(1)
	key := []byte("row-1")

	cmd1 := mgr.BeginCommand(txn.Optimistic)
	cmd1.Set(table, key, []byte("v1"))
	v1, err := cmd1.Commit()
	if err != nil {
		t.Fatalf("commit 1: %v", err)
	}

	events, err := Scan(backend, kv.CdcTable, 0, v1)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(events) != 1 || events[0].Change.Kind != Insert {
		t.Fatalf("expected one Insert event, got %+v", events)
	}
	if !bytes.Equal(events[0].Change.Post, []byte("v1")) {
		t.Fatalf("expected post v1, got %q", events[0].Change.Post)
	}

	cmd2 := mgr.BeginCommand(txn.Optimistic)
	cmd2.Set(table, key, []byte("v2"))
	v2, err := cmd2.Commit()
	if err != nil {
		t.Fatalf("commit 2: %v", err)
	}

	events, err = Scan(backend, kv.CdcTable, v1, v2)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(events) != 1 || events[0].Change.Kind != Update {
		t.Fatalf("expected one Update event, got %+v", events)
	}
	if !bytes.Equal(events[0].Change.Pre, []byte("v1")) || !bytes.Equal(events[0].Change.Post, []byte("v2")) {
		t.Fatalf("unexpected update pre/post: %+v", events[0].Change)
	}

	cmd3 := mgr.BeginCommand(txn.Optimistic)
	cmd3.Remove(table, key)
	v3, err := cmd3.Commit()
	if err != nil {
		t.Fatalf("commit 3: %v", err)
	}

	events, err = Scan(backend, kv.CdcTable, v2, v3)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(events) != 1 || events[0].Change.Kind != Delete {
		t.Fatalf("expected one Delete event, got %+v", events)
	}
	if !bytes.Equal(events[0].Change.Pre, []byte("v2")) {
		t.Fatalf("expected delete pre v2, got %q", events[0].Change.Pre)
	}
}

func TestRecordsSkipsNoOpDeleteOfMissingKey(t *testing.T) {
	mgr, backend := newTestHarness(t)
	table := kv.SourceTableID(1)

	cmd := mgr.BeginCommand(txn.Optimistic)
	cmd.Remove(table, []byte("never-existed"))
	v, err := cmd.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	events, err := Scan(backend, kv.CdcTable, 0, v)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no cdc event for removing a never-written key, got %+v", events)
	}
}

func TestRecordsOrdersEventsByKeyWithinVersion(t *testing.T) {
	mgr, backend := newTestHarness(t)
	table := kv.SourceTableID(1)

	cmd := mgr.BeginCommand(txn.Optimistic)
	cmd.Set(table, []byte("b"), []byte("2"))
	cmd.Set(table, []byte("a"), []byte("1"))
	cmd.Set(table, []byte("c"), []byte("3"))
	v, err := cmd.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	events, err := Scan(backend, kv.CdcTable, 0, v)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, want := range []string{"a", "b", "c"} {
		if string(events[i].Key) != want {
			t.Fatalf("expected key order a,b,c within version, got index %d = %q", i, events[i].Key)
		}
	}
}
