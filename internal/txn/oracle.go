package txn

import (
	"sync"

	"github.com/reifydb/reifydb/internal/kv"
	"github.com/reifydb/reifydb/internal/mvcc"
	"github.com/reifydb/reifydb/internal/reifyerr"
	"github.com/reifydb/reifydb/internal/version"
)

// writtenKey is one (table, key) pair touched by a committed transaction,
// retained only long enough to serve the conflict check of transactions
// whose read_version predates it.
type writtenKey struct {
	table kv.TableID
	key   []byte
}

type commitRecord struct {
	version uint64
	writes  []writtenKey
}

// Oracle serializes commit-time conflict detection and commit-version
// allocation (spec.md §4.E: "Acquire a lock on the oracle"). One Oracle is
// shared by every transaction opened against the same store.
type Oracle struct {
	mu       sync.Mutex
	versions *version.Provider
	store    *mvcc.Store
	cdcTable kv.TableID
	cdc      mvcc.CdcWriter // may be nil (no CDC wiring configured)

	recent      []commitRecord
	activeReads map[uint64]int
}

// NewOracle builds an Oracle over store, allocating commit versions from
// versions and writing CDC entries (if cdc is non-nil) into cdcTable.
func NewOracle(versions *version.Provider, store *mvcc.Store, cdcTable kv.TableID, cdc mvcc.CdcWriter) *Oracle {
	return &Oracle{
		versions:    versions,
		store:       store,
		cdcTable:    cdcTable,
		cdc:         cdc,
		activeReads: make(map[uint64]int),
	}
}

// SafeReadVersion returns the version new transactions default to: the
// current done-until watermark, the highest version guaranteed to have
// completed its whole commit pipeline.
func (o *Oracle) SafeReadVersion() uint64 {
	return o.versions.Watermark()
}

// RegisterRead pins version v as in use by an open transaction, so the
// oracle retains enough commit history to conflict-check against it.
func (o *Oracle) RegisterRead(v uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.activeReads[v]++
}

// ReleaseRead unpins a previously registered read version (spec.md §4.E
// "Query ... releases its registered read on drop").
func (o *Oracle) ReleaseRead(v uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.activeReads[v]--
	if o.activeReads[v] <= 0 {
		delete(o.activeReads, v)
	}
	o.trimRecentLocked()
}

// trimRecentLocked drops commit records no currently-registered or future
// read could still need: a record at version r is only ever relevant to a
// transaction whose read_version < r, so once every active read_version is
// ≥ the floor, records at or below the floor can be forgotten.
func (o *Oracle) trimRecentLocked() {
	floor := o.versions.Watermark()
	for v := range o.activeReads {
		if v < floor {
			floor = v
		}
	}
	i := 0
	for i < len(o.recent) && o.recent[i].version <= floor {
		i++
	}
	o.recent = o.recent[i:]
}

// Commit runs the optimistic/serializable conflict check (spec.md §4.E
// steps 3a-3e) and, if it passes, allocates the next commit version,
// applies pending's deltas atomically with a CDC entry, and publishes the
// new version on the done-until watermark.
func (o *Oracle) Commit(cm *ConflictManager, pending *PendingWrites, readVersion uint64) (uint64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var conflictKeys [][]byte
	for _, rec := range o.recent {
		if rec.version <= readVersion {
			continue
		}
		for _, w := range rec.writes {
			ck := conflictKey(w.table, w.key)
			if _, hit := cm.readSet[ck]; hit {
				conflictKeys = append(conflictKeys, w.key)
				continue
			}
			if cm.isolation == Serializable {
				for _, rr := range cm.rangeReads {
					if inRange(w.table, w.key, rr) {
						conflictKeys = append(conflictKeys, w.key)
						break
					}
				}
			}
		}
	}
	if len(conflictKeys) > 0 {
		return 0, reifyerr.Conflict(conflictKeys)
	}

	v, err := o.versions.Next()
	if err != nil {
		return 0, reifyerr.Storage(err)
	}

	deltas := pending.Deltas()
	if err := o.store.CommitMulti(deltas, v, o.cdcTable, o.cdc); err != nil {
		return 0, reifyerr.Storage(err)
	}

	var writes []writtenKey
	for table, ds := range deltas {
		for _, d := range ds {
			writes = append(writes, writtenKey{table: table, key: d.Key})
		}
	}
	o.recent = append(o.recent, commitRecord{version: v, writes: writes})
	o.trimRecentLocked()

	// The commit pipeline (data + CDC write) has fully completed by the
	// time CommitMulti returns, so the watermark can advance past v
	// immediately (spec.md §4.E "Publish v_new on the done-until
	// watermark when the commit pipeline is complete").
	o.versions.Done(v)

	return v, nil
}
