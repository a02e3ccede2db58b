package cdc

import (
	"github.com/robfig/cron/v3"

	"github.com/reifydb/reifydb/internal/catalog"
	"github.com/reifydb/reifydb/internal/logutil"
	"github.com/reifydb/reifydb/internal/txn"
)

// LiveIndices computes, for one dictionary-encoded column, the set of
// dictionary indices still referenced by live rows. It is supplied by the
// caller (the executor layer owns row decoding) so this package never needs
// to know a table's row layout.
type LiveIndices func(cmd *txn.Command, columnID uint64) (map[uint32]bool, error)

// GCScheduler periodically mark-and-sweeps every dictionary-encoded column's
// entries. Unlike the flow engine and subscription dispatch, dictionary GC
// is not wired as a CDC-event consumer here: distinguishing "this index is
// now unreferenced" from a stream of Insert/Update/Delete diffs requires
// exactly the row decoding the flow/executor layer does, so a periodic
// full reconciliation sweep (grounded on the teacher's robfig/cron.Cron
// usage in internal/storage/scheduler.go) is the simpler, still-correct
// choice: every run recomputes the live set from scratch instead of
// maintaining an incremental reference count.
type GCScheduler struct {
	cron    *cron.Cron
	cat     *catalog.Catalog
	mgr     *txn.Manager
	columns func() []uint64
	live    LiveIndices
}

// NewGCScheduler builds a scheduler that sweeps the columns named by
// columns() on the given cron spec (e.g. "0 */5 * * * *" for every five
// minutes, using the teacher's seconds-enabled parser).
func NewGCScheduler(cat *catalog.Catalog, mgr *txn.Manager, columns func() []uint64, live LiveIndices) *GCScheduler {
	return &GCScheduler{
		cron:    cron.New(cron.WithSeconds()),
		cat:     cat,
		mgr:     mgr,
		columns: columns,
		live:    live,
	}
}

// Start registers the sweep on spec and starts the underlying cron loop.
func (g *GCScheduler) Start(spec string) error {
	_, err := g.cron.AddFunc(spec, g.sweep)
	if err != nil {
		return err
	}
	g.cron.Start()
	return nil
}

// Stop halts the cron loop, waiting for any in-flight sweep to finish.
func (g *GCScheduler) Stop() {
	<-g.cron.Stop().Done()
}

func (g *GCScheduler) sweep() {
	for _, columnID := range g.columns() {
		cmd := g.mgr.BeginCommand(txn.Optimistic)
		referenced, err := g.live(cmd, columnID)
		if err != nil {
			logutil.Errorf("dictionary gc: compute live set for column %d: %v", columnID, err)
			cmd.Rollback()
			continue
		}
		if err := catalog.DictionaryGC(cmd, columnID, referenced); err != nil {
			logutil.Errorf("dictionary gc: sweep column %d: %v", columnID, err)
			cmd.Rollback()
			continue
		}
		if _, err := cmd.Commit(); err != nil {
			logutil.Errorf("dictionary gc: commit column %d: %v", columnID, err)
		}
	}
}
