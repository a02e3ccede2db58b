package txn

import (
	"github.com/google/uuid"

	"github.com/reifydb/reifydb/internal/kv"
	"github.com/reifydb/reifydb/internal/mvcc"
)

// ID identifies one transaction, query or command. Built from a UUIDv7 so
// log lines sort roughly by creation time without a separate timestamp
// field.
type ID = uuid.UUID

func newID() ID { return uuid.Must(uuid.NewV7()) }

// State is a transaction's lifecycle state (spec.md §6 "Command
// transaction: Active → Committing → Committed | Aborted | Conflict;
// terminal states are absorbing").
type State int

const (
	StateActive State = iota
	StateCommitting
	StateCommitted
	StateAborted
	StateConflict
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "Active"
	case StateCommitting:
		return "Committing"
	case StateCommitted:
		return "Committed"
	case StateAborted:
		return "Aborted"
	case StateConflict:
		return "Conflict"
	default:
		return "Unknown"
	}
}

func (s State) terminal() bool {
	return s == StateCommitted || s == StateAborted || s == StateConflict
}

// Query is a read-only transaction pinned to an immutable snapshot version
// (spec.md §4.E). It holds no writes and must be closed to release its
// registered read.
type Query struct {
	id       ID
	oracle   *Oracle
	store    *mvcc.Store
	version  uint64
	released bool
}

// ID returns the query's identity.
func (q *Query) ID() ID { return q.id }

// Version returns the snapshot version the query reads at.
func (q *Query) Version() uint64 { return q.version }

// Get reads the value visible at key within table as of the query's
// snapshot version.
func (q *Query) Get(table kv.TableID, key []byte) ([]byte, bool, error) {
	return q.store.Get(table, key, q.version)
}

// Contains reports whether key has a value visible at the query's snapshot
// version.
func (q *Query) Contains(table kv.TableID, key []byte) (bool, error) {
	return q.store.Contains(table, key, q.version)
}

// Range starts a forward range scan over table at the query's snapshot
// version.
func (q *Query) Range(table kv.TableID, start, end []byte) *mvcc.Cursor {
	return q.store.Range(table, start, end, q.version)
}

// RangeRev starts a reverse range scan over table at the query's snapshot
// version.
func (q *Query) RangeRev(table kv.TableID, start, end []byte) *mvcc.Cursor {
	return q.store.RangeRev(table, start, end, q.version)
}

// Close releases the query's registered read. Safe to call more than once.
func (q *Query) Close() {
	if q.released {
		return
	}
	q.oracle.ReleaseRead(q.version)
	q.released = true
}
