package flow

import (
	"testing"

	"github.com/reifydb/reifydb/internal/kv"
	"github.com/reifydb/reifydb/internal/mvcc"
	"github.com/reifydb/reifydb/internal/txn"
	"github.com/reifydb/reifydb/internal/version"
)

func newTestCommand(t *testing.T) (*txn.Manager, *txn.Command) {
	t.Helper()
	backend := kv.NewMemoryBackend()
	store := mvcc.NewStore(backend)
	versions, err := version.NewProvider(backend)
	if err != nil {
		t.Fatalf("new version provider: %v", err)
	}
	oracle := txn.NewOracle(versions, store, kv.CdcTable, nil)
	mgr := txn.NewManager(store, oracle)
	return mgr, mgr.BeginCommand(txn.Optimistic)
}
