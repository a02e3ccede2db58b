package exec

import (
	"testing"

	"github.com/reifydb/reifydb/internal/kv"
	"github.com/reifydb/reifydb/internal/mvcc"
	"github.com/reifydb/reifydb/internal/row"
	"github.com/reifydb/reifydb/internal/txn"
	"github.com/reifydb/reifydb/internal/version"
)

func newTestManager(t *testing.T) *txn.Manager {
	t.Helper()
	backend := kv.NewMemoryBackend()
	store := mvcc.NewStore(backend)
	versions, err := version.NewProvider(backend)
	if err != nil {
		t.Fatalf("new version provider: %v", err)
	}
	oracle := txn.NewOracle(versions, store, kv.CdcTable, nil)
	return txn.NewManager(store, oracle)
}

// seedTable commits one row per entry in rows, each encoded with layout,
// keyed by its index, and returns a Query snapshot that observes them all.
func seedTable(t *testing.T, mgr *txn.Manager, table kv.TableID, layout *row.Layout, rows [][]any) *txn.Query {
	t.Helper()
	cmd := mgr.BeginCommand(txn.Optimistic)
	for i, vals := range rows {
		enc, err := row.Encode(layout, vals)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		cmd.Set(table, []byte{byte(i)}, enc)
	}
	if _, err := cmd.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return mgr.BeginQuery()
}
