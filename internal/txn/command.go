package txn

import (
	"bytes"
	"sort"

	"github.com/reifydb/reifydb/internal/kv"
	"github.com/reifydb/reifydb/internal/reifyerr"
)

// RangeItem is one collapsed logical-key entry returned by Command.Range,
// merging the transaction's own pending writes over the committed store.
type RangeItem struct {
	Key   []byte
	Value []byte
}

// Command is a writable transaction (spec.md §4.E). It buffers writes in a
// PendingWrites map that shadows the store for its own reads (I2), and
// records a read/write-set in a ConflictManager for commit-time conflict
// detection.
type Command struct {
	id          ID
	mgr         *Manager
	readVersion uint64
	pending     *PendingWrites
	conflict    *ConflictManager
	state       State
	released    bool
}

// ID returns the command's identity.
func (c *Command) ID() ID { return c.id }

// Version returns the snapshot version the command reads the committed
// store at (its pending writes always take precedence).
func (c *Command) Version() uint64 { return c.readVersion }

// State returns the command's current lifecycle state.
func (c *Command) State() State { return c.state }

// Get reads key within table, consulting the transaction's own pending
// writes first (read-your-writes, spec.md I2) and falling through to the
// committed store at the transaction's snapshot version. A pending
// tombstone (found=true, value=nil) is reported as absent, exactly like a
// tombstone read from storage.
func (c *Command) Get(table kv.TableID, key []byte) ([]byte, bool, error) {
	if value, found := c.pending.Get(table, key); found {
		return value, value != nil, nil
	}
	c.conflict.RecordRead(table, key)
	return c.mgr.store.Get(table, key, c.readVersion)
}

// Set buffers a write, to be emitted as a delta at commit.
func (c *Command) Set(table kv.TableID, key, value []byte) {
	c.pending.Set(table, key, value)
	c.conflict.RecordWrite(table, key)
}

// Remove buffers a tombstone, to be emitted as a delta at commit.
func (c *Command) Remove(table kv.TableID, key []byte) {
	c.pending.Remove(table, key)
	c.conflict.RecordWrite(table, key)
}

// Range scans [start, end) within table at the transaction's snapshot
// version, overlaying any of the transaction's own pending writes that
// fall in the range, and recording the range bounds for serializable
// conflict detection.
//
// This materializes the whole range rather than exposing a resumable
// cursor: merging an in-flight pending-write overlay with a paginated
// mvcc.Cursor would need to re-derive the merge point on every resume, and
// every caller of Command.Range in this codebase (catalog lookups, small
// system-table scans) operates on ranges small enough that full
// materialization is the simpler, still-correct choice. See DESIGN.md.
func (c *Command) Range(table kv.TableID, start, end []byte) ([]RangeItem, error) {
	c.conflict.RecordRangeRead(table, start, end)

	merged := make(map[string]*RangeItem)
	cur := c.mgr.store.Range(table, start, end, c.readVersion)
	for {
		entries, ok, err := cur.Next(256)
		if err != nil {
			return nil, reifyerr.Storage(err)
		}
		if !ok {
			break
		}
		for _, e := range entries {
			if e.Tombstone {
				continue
			}
			merged[string(e.Key)] = &RangeItem{Key: e.Key, Value: e.Value}
		}
	}

	for _, ck := range c.pending.order {
		w := c.pending.byKey[ck]
		if w.table != table {
			continue
		}
		if start != nil && bytes.Compare(w.key, start) < 0 {
			continue
		}
		if end != nil && bytes.Compare(w.key, end) >= 0 {
			continue
		}
		if w.value == nil {
			delete(merged, string(w.key))
			continue
		}
		merged[string(w.key)] = &RangeItem{Key: w.key, Value: w.value}
	}

	out := make([]RangeItem, 0, len(merged))
	for _, item := range merged {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i].Key, out[j].Key) < 0 })
	return out, nil
}

// Commit runs the oracle's conflict check and, if it passes, publishes the
// transaction's pending writes as deltas at a newly allocated commit
// version. On Conflict or Storage failure the transaction moves to a
// terminal state and its registered read is released; the caller may
// retry by beginning a fresh Command.
func (c *Command) Commit() (uint64, error) {
	if c.state != StateActive {
		return 0, reifyerr.Internal("command transaction is not active: " + c.state.String())
	}
	c.state = StateCommitting

	v, err := c.mgr.oracle.Commit(c.conflict, c.pending, c.readVersion)
	if err != nil {
		if reifyerr.IsConflict(err) {
			c.state = StateConflict
		} else {
			c.state = StateAborted
		}
		c.release()
		return 0, err
	}
	c.state = StateCommitted
	c.release()
	return v, nil
}

// Rollback discards every pending write and read/write-set entry
// (spec.md §4.E "Rollback clears pending writes and read/write sets and
// releases all registered versions"), moving the transaction to Aborted.
func (c *Command) Rollback() {
	if c.state.terminal() {
		return
	}
	c.pending.reset()
	c.conflict.reset()
	c.state = StateAborted
	c.release()
}

func (c *Command) release() {
	if c.released {
		return
	}
	c.mgr.oracle.ReleaseRead(c.readVersion)
	c.released = true
}
