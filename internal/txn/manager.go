// Package txn implements the transaction manager (spec.md §4.E): Query
// (read-only, snapshot) and Command (read-write, buffered+conflict-checked)
// transactions sharing an Oracle for commit-version allocation and
// optimistic/serializable conflict detection.
package txn

import (
	"github.com/reifydb/reifydb/internal/mvcc"
)

// Manager opens Query and Command transactions against one mvcc.Store,
// serialized through one Oracle.
type Manager struct {
	store  *mvcc.Store
	oracle *Oracle
}

// NewManager builds a Manager over store, allocating commit versions and
// detecting conflicts through oracle.
func NewManager(store *mvcc.Store, oracle *Oracle) *Manager {
	return &Manager{store: store, oracle: oracle}
}

// BeginQuery opens a read-only transaction pinned at the current safe
// (done-until watermark) version.
func (m *Manager) BeginQuery() *Query {
	return m.BeginQueryAt(m.oracle.SafeReadVersion())
}

// BeginQueryAt opens a read-only transaction pinned at an explicit version,
// e.g. to replay history or to follow a specific commit's result.
func (m *Manager) BeginQueryAt(v uint64) *Query {
	m.oracle.RegisterRead(v)
	return &Query{id: newID(), oracle: m.oracle, store: m.store, version: v}
}

// BeginCommand opens a writable transaction under the given isolation
// level, snapshotting the current safe version as its read_version
// (spec.md §4.E step 1 "the transaction captures a read_version").
func (m *Manager) BeginCommand(isolation IsolationLevel) *Command {
	v := m.oracle.SafeReadVersion()
	m.oracle.RegisterRead(v)
	return &Command{
		id:          newID(),
		mgr:         m,
		readVersion: v,
		pending:     newPendingWrites(),
		conflict:    newConflictManager(isolation),
		state:       StateActive,
	}
}
