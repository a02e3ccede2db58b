package cdc

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/reifydb/reifydb/internal/keycode"
	"github.com/reifydb/reifydb/internal/kv"
	"github.com/reifydb/reifydb/internal/mvcc"
)

// Writer implements mvcc.CdcWriter. It classifies each delta of a commit
// into Insert/Update/Delete by reading the logical key's value as it stood
// immediately before the commit: Records runs inside Store.CommitMulti
// before that commit's own writes reach the backend (internal/mvcc.go
// "CommitMulti"), so Store.Get(table, key, v) at this point still answers
// with the prior state, exactly the pre-image the CdcChange taxonomy
// needs. This is the one piece of the commit pipeline that needs read
// access to the store itself, which is why Writer holds a *mvcc.Store
// instead of working purely off the Delta values CommitMulti already has.
type Writer struct {
	store *mvcc.Store
}

// NewWriter builds a Writer reading pre-images from store.
func NewWriter(store *mvcc.Store) *Writer {
	return &Writer{store: store}
}

type taggedDelta struct {
	table kv.TableID
	delta mvcc.Delta
}

// Records implements mvcc.CdcWriter (spec.md §4.H; glossary "CDC table...
// ascending range scan by key yields ascending (version, ...) order").
// Sequence numbers are assigned in (table, key) order so that a consumer
// scanning the CDC table within one version also observes the writes in
// ascending logical-key order, not merely commit order.
func (w *Writer) Records(deltasByTable map[kv.TableID][]mvcc.Delta, v uint64) ([]kv.Write, error) {
	var items []taggedDelta
	for table, deltas := range deltasByTable {
		for _, d := range deltas {
			items = append(items, taggedDelta{table: table, delta: d})
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].table.String() != items[j].table.String() {
			return items[i].table.String() < items[j].table.String()
		}
		return bytes.Compare(items[i].delta.Key, items[j].delta.Key) < 0
	})

	writes := make([]kv.Write, 0, len(items))
	seq := uint32(0)
	for _, it := range items {
		pre, found, err := w.store.Get(it.table, it.delta.Key, v)
		if err != nil {
			return nil, fmt.Errorf("cdc: read prior value for %s: %w", it.table, err)
		}

		var change Change
		switch {
		case it.delta.Value == nil && !found:
			// tombstoning a key that never had a visible value: nothing
			// changed from any reader's perspective, no event.
			continue
		case it.delta.Value == nil:
			change = Change{Kind: Delete, Pre: pre}
		case found:
			change = Change{Kind: Update, Pre: pre, Post: it.delta.Value}
		default:
			change = Change{Kind: Insert, Post: it.delta.Value}
		}

		ev := Event{Version: v, Source: it.table, Key: it.delta.Key, Change: change}
		writes = append(writes, kv.Write{
			Key:   keycode.EncodeCdc(v, seq),
			Value: encodeEvent(ev),
		})
		seq++
	}
	return writes, nil
}
