package txn

import (
	"github.com/reifydb/reifydb/internal/kv"
	"github.com/reifydb/reifydb/internal/mvcc"
)

// pendingWrite is one buffered Set or Remove within a command transaction.
type pendingWrite struct {
	table kv.TableID
	key   []byte
	value []byte // nil = Remove
}

// PendingWrites is the ordered map of key → Set/Remove a command
// transaction buffers before commit (spec.md §4.E "Owns a PendingWrites
// buffer"). Reads within the transaction consult it before falling through
// to the MVCC store, giving read-your-writes (spec.md I2).
type PendingWrites struct {
	order []string
	byKey map[string]*pendingWrite
}

func newPendingWrites() *PendingWrites {
	return &PendingWrites{byKey: make(map[string]*pendingWrite)}
}

func conflictKey(table kv.TableID, key []byte) string {
	return table.String() + "\x00" + string(key)
}

// Set buffers a write of value at key within table.
func (p *PendingWrites) Set(table kv.TableID, key, value []byte) {
	p.put(table, key, value)
}

// Remove buffers a tombstone at key within table.
func (p *PendingWrites) Remove(table kv.TableID, key []byte) {
	p.put(table, key, nil)
}

func (p *PendingWrites) put(table kv.TableID, key, value []byte) {
	ck := conflictKey(table, key)
	if _, exists := p.byKey[ck]; !exists {
		p.order = append(p.order, ck)
	}
	p.byKey[ck] = &pendingWrite{table: table, key: append([]byte(nil), key...), value: value}
}

// Get returns the buffered write at key within table, if any. The returned
// value is nil either when there is no pending write (found=false) or when
// the pending write is a tombstone (found=true, value=nil) — callers must
// check found to distinguish the two.
func (p *PendingWrites) Get(table kv.TableID, key []byte) (value []byte, found bool) {
	w, ok := p.byKey[conflictKey(table, key)]
	if !ok {
		return nil, false
	}
	return w.value, true
}

// Empty reports whether no writes have been buffered.
func (p *PendingWrites) Empty() bool { return len(p.order) == 0 }

// Len reports the number of distinct keys with a pending write.
func (p *PendingWrites) Len() int { return len(p.order) }

// Deltas groups every buffered write by table, in the order each key was
// first touched, ready to pass to mvcc.Store.CommitMulti.
func (p *PendingWrites) Deltas() map[kv.TableID][]mvcc.Delta {
	out := make(map[kv.TableID][]mvcc.Delta)
	for _, ck := range p.order {
		w := p.byKey[ck]
		out[w.table] = append(out[w.table], mvcc.Delta{Key: w.key, Value: w.value})
	}
	return out
}

// reset clears every buffered write (spec.md §4.E "Rollback clears pending
// writes").
func (p *PendingWrites) reset() {
	p.order = nil
	p.byKey = make(map[string]*pendingWrite)
}
