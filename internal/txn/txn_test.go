package txn

import (
	"testing"

	"github.com/reifydb/reifydb/internal/kv"
	"github.com/reifydb/reifydb/internal/mvcc"
	"github.com/reifydb/reifydb/internal/reifyerr"
	"github.com/reifydb/reifydb/internal/version"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	backend := kv.NewMemoryBackend()
	store := mvcc.NewStore(backend)
	versions, err := version.NewProvider(backend)
	if err != nil {
		t.Fatalf("new version provider: %v", err)
	}
	oracle := NewOracle(versions, store, kv.CdcTable, nil)
	return NewManager(store, oracle)
}

func TestCommandReadYourWrites(t *testing.T) {
	mgr := newTestManager(t)
	cmd := mgr.BeginCommand(Optimistic)
	cmd.Set(kv.MultiTable, []byte("k"), []byte("v1"))

	v, found, err := cmd.Get(kv.MultiTable, []byte("k"))
	if err != nil || !found || string(v) != "v1" {
		t.Fatalf("expected to read own pending write, got v=%q found=%v err=%v", v, found, err)
	}

	if _, err := cmd.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	q := mgr.BeginQuery()
	defer q.Close()
	v2, found, err := q.Get(kv.MultiTable, []byte("k"))
	if err != nil || !found || string(v2) != "v1" {
		t.Fatalf("expected committed value visible to new query, got v=%q found=%v err=%v", v2, found, err)
	}
}

func TestQuerySnapshotIsolation(t *testing.T) {
	mgr := newTestManager(t)

	cmd1 := mgr.BeginCommand(Optimistic)
	cmd1.Set(kv.MultiTable, []byte("k"), []byte("v1"))
	if _, err := cmd1.Commit(); err != nil {
		t.Fatalf("commit 1: %v", err)
	}

	q := mgr.BeginQuery()
	defer q.Close()

	cmd2 := mgr.BeginCommand(Optimistic)
	cmd2.Set(kv.MultiTable, []byte("k"), []byte("v2"))
	if _, err := cmd2.Commit(); err != nil {
		t.Fatalf("commit 2: %v", err)
	}

	v, found, err := q.Get(kv.MultiTable, []byte("k"))
	if err != nil || !found || string(v) != "v1" {
		t.Fatalf("expected snapshot to still see v1, got v=%q found=%v err=%v", v, found, err)
	}
}

// TestOptimisticConflict grounds spec.md S4: T1 and T2 both read key K at
// the same version; T1 writes and commits first; T2's commit must return
// Conflict; a retried T2 beginning fresh then commits cleanly.
func TestOptimisticConflict(t *testing.T) {
	mgr := newTestManager(t)
	seed := mgr.BeginCommand(Optimistic)
	seed.Set(kv.MultiTable, []byte("K"), []byte("0"))
	if _, err := seed.Commit(); err != nil {
		t.Fatalf("seed commit: %v", err)
	}

	t1 := mgr.BeginCommand(Optimistic)
	t2 := mgr.BeginCommand(Optimistic)

	if _, _, err := t1.Get(kv.MultiTable, []byte("K")); err != nil {
		t.Fatalf("t1 read: %v", err)
	}
	if _, _, err := t2.Get(kv.MultiTable, []byte("K")); err != nil {
		t.Fatalf("t2 read: %v", err)
	}

	t1.Set(kv.MultiTable, []byte("K"), []byte("from-t1"))
	if _, err := t1.Commit(); err != nil {
		t.Fatalf("t1 commit: %v", err)
	}

	t2.Set(kv.MultiTable, []byte("K"), []byte("from-t2"))
	_, err := t2.Commit()
	if err == nil {
		t.Fatal("expected t2 commit to return Conflict")
	}
	if !reifyerr.IsConflict(err) {
		t.Fatalf("expected Conflict error, got %v", err)
	}
	if t2.State() != StateConflict {
		t.Fatalf("expected t2 state Conflict, got %v", t2.State())
	}

	retry := mgr.BeginCommand(Optimistic)
	retry.Set(kv.MultiTable, []byte("K"), []byte("from-t2-retry"))
	v, err := retry.Commit()
	if err != nil {
		t.Fatalf("retry commit: %v", err)
	}
	if v == 0 {
		t.Fatal("expected retry to commit at a nonzero version")
	}

	q := mgr.BeginQuery()
	defer q.Close()
	got, _, _ := q.Get(kv.MultiTable, []byte("K"))
	if string(got) != "from-t2-retry" {
		t.Fatalf("expected final value from-t2-retry, got %q", got)
	}
}

func TestNoConflictWhenWriteSetsDisjoint(t *testing.T) {
	mgr := newTestManager(t)
	t1 := mgr.BeginCommand(Optimistic)
	t2 := mgr.BeginCommand(Optimistic)

	t1.Set(kv.MultiTable, []byte("A"), []byte("1"))
	t2.Set(kv.MultiTable, []byte("B"), []byte("2"))

	if _, err := t1.Commit(); err != nil {
		t.Fatalf("t1 commit: %v", err)
	}
	if _, err := t2.Commit(); err != nil {
		t.Fatalf("expected disjoint write sets not to conflict: %v", err)
	}
}

func TestRollbackDiscardsPendingWrites(t *testing.T) {
	mgr := newTestManager(t)
	cmd := mgr.BeginCommand(Optimistic)
	cmd.Set(kv.MultiTable, []byte("k"), []byte("v"))
	cmd.Rollback()

	if cmd.State() != StateAborted {
		t.Fatalf("expected Aborted state, got %v", cmd.State())
	}

	q := mgr.BeginQuery()
	defer q.Close()
	if _, found, _ := q.Get(kv.MultiTable, []byte("k")); found {
		t.Fatal("expected rolled-back write not to be visible")
	}
}

func TestSerializableDetectsPhantomWrite(t *testing.T) {
	mgr := newTestManager(t)

	reader := mgr.BeginCommand(Serializable)
	if _, err := reader.Range(kv.MultiTable, []byte("a"), []byte("z")); err != nil {
		t.Fatalf("range: %v", err)
	}

	writer := mgr.BeginCommand(Optimistic)
	writer.Set(kv.MultiTable, []byte("m"), []byte("new"))
	if _, err := writer.Commit(); err != nil {
		t.Fatalf("writer commit: %v", err)
	}

	reader.Set(kv.MultiTable, []byte("other"), []byte("x"))
	_, err := reader.Commit()
	if !reifyerr.IsConflict(err) {
		t.Fatalf("expected serializable reader to detect phantom write, got %v", err)
	}
}

func TestCommandRangeOverlaysPendingWrites(t *testing.T) {
	mgr := newTestManager(t)
	seed := mgr.BeginCommand(Optimistic)
	seed.Set(kv.MultiTable, []byte("a"), []byte("a1"))
	seed.Set(kv.MultiTable, []byte("b"), []byte("b1"))
	if _, err := seed.Commit(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cmd := mgr.BeginCommand(Optimistic)
	cmd.Set(kv.MultiTable, []byte("c"), []byte("c1")) // new, pending-only
	cmd.Remove(kv.MultiTable, []byte("a"))            // tombstoned, pending-only

	items, err := cmd.Range(kv.MultiTable, []byte("a"), []byte("z"))
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	got := map[string]string{}
	for _, it := range items {
		got[string(it.Key)] = string(it.Value)
	}
	if _, present := got["a"]; present {
		t.Fatal("expected pending tombstone to hide 'a'")
	}
	if got["b"] != "b1" {
		t.Fatalf("expected committed 'b' to remain visible, got %+v", got)
	}
	if got["c"] != "c1" {
		t.Fatalf("expected pending 'c' to be visible within own transaction, got %+v", got)
	}
}
