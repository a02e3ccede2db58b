package flow

import (
	"encoding/binary"
	"time"

	"github.com/reifydb/reifydb/internal/catalog"
	"github.com/reifydb/reifydb/internal/keycode"
	"github.com/reifydb/reifydb/internal/row"
	"github.com/reifydb/reifydb/internal/txn"
)

// windowNode implements spec.md §4.J "Window": it buffers rows and emits
// the window's full contents as a batch of Insert diffs whenever a window
// closes. This package has no schema-aware notion of an event-time column
// (a row is an opaque row.Values blob at this layer), so time-based window
// kinds use wall-clock time observed at Apply as the event-time proxy — a
// scoped simplification; a future schema-aware binding could supply a real
// time-extraction closure the same way KeyFunc supplies a join/group key.
type windowNode struct {
	id   uint64
	spec WindowParams
}

func (n *windowNode) ID() uint64                 { return n.id }
func (n *windowNode) Kind() catalog.FlowNodeKind { return catalog.FlowNodeWindow }

// windowMetaKey and windowRowKey prefixes are tagged with a leading marker
// byte so a range scan over an operator's whole key space can tell a single
// meta entry apart from the variable-count buffered row entries (both would
// otherwise be indistinguishable 4-byte sequence numbers).
var windowMetaKey = []byte{0}

const windowRowTag = byte(1)

type windowMeta struct {
	startUnixMillis int64
	count           uint32
	nextSeq         uint32
}

func encodeWindowMeta(m windowMeta) []byte {
	out := make([]byte, 16)
	binary.BigEndian.PutUint64(out[0:8], uint64(m.startUnixMillis))
	binary.BigEndian.PutUint32(out[8:12], m.count)
	binary.BigEndian.PutUint32(out[12:16], m.nextSeq)
	return out
}

func decodeWindowMeta(b []byte) windowMeta {
	if len(b) < 16 {
		return windowMeta{}
	}
	return windowMeta{
		startUnixMillis: int64(binary.BigEndian.Uint64(b[0:8])),
		count:           binary.BigEndian.Uint32(b[8:12]),
		nextSeq:         binary.BigEndian.Uint32(b[12:16]),
	}
}

func windowRowKey(seq uint32) []byte {
	out := make([]byte, 5)
	out[0] = windowRowTag
	binary.BigEndian.PutUint32(out[1:], seq)
	return out
}

func (n *windowNode) loadMeta(cmd *txn.Command) (windowMeta, error) {
	v, found, err := cmd.Get(operatorTable(n.id), keycode.EncodeOperatorState(n.id, windowMetaKey))
	if err != nil {
		return windowMeta{}, err
	}
	if !found {
		return windowMeta{startUnixMillis: 0, count: 0, nextSeq: 0}, nil
	}
	return decodeWindowMeta(v), nil
}

func (n *windowNode) storeMeta(cmd *txn.Command, m windowMeta) {
	cmd.Set(operatorTable(n.id), keycode.EncodeOperatorState(n.id, windowMetaKey), encodeWindowMeta(m))
}

type bufferedRow struct {
	seq   uint32
	value row.Values
}

// bufferItems returns every buffered row, ordered by insertion sequence
// (ascending key order over a fixed-width big-endian sequence number is
// ascending sequence order).
func (n *windowNode) bufferItems(cmd *txn.Command) ([]bufferedRow, error) {
	start, end := keycode.OperatorStatePrefix(n.id)
	items, err := cmd.Range(operatorTable(n.id), start, end)
	if err != nil {
		return nil, err
	}
	out := make([]bufferedRow, 0, len(items))
	for _, it := range items {
		nodeID, stateKey, err := keycode.DecodeOperatorState(it.Key)
		if err != nil || nodeID != n.id || len(stateKey) != 5 || stateKey[0] != windowRowTag {
			continue // skip the meta entry and anything not a tagged row entry
		}
		out = append(out, bufferedRow{seq: binary.BigEndian.Uint32(stateKey[1:]), value: row.Values(it.Value)})
	}
	return out, nil
}

func (n *windowNode) bufferRange(cmd *txn.Command) ([]row.Values, error) {
	items, err := n.bufferItems(cmd)
	if err != nil {
		return nil, err
	}
	out := make([]row.Values, len(items))
	for i, it := range items {
		out[i] = it.value
	}
	return out, nil
}

func (n *windowNode) appendRow(cmd *txn.Command, m *windowMeta, r row.Values) {
	cmd.Set(operatorTable(n.id), keycode.EncodeOperatorState(n.id, windowRowKey(m.nextSeq)), r)
	m.nextSeq++
	m.count++
}

func (n *windowNode) clearBuffer(cmd *txn.Command, m *windowMeta) {
	for seq := uint32(0); seq < m.nextSeq; seq++ {
		cmd.Remove(operatorTable(n.id), keycode.EncodeOperatorState(n.id, windowRowKey(seq)))
	}
	*m = windowMeta{}
}

func (n *windowNode) closeAndEmit(cmd *txn.Command, m *windowMeta) ([]Diff, error) {
	rows, err := n.bufferRange(cmd)
	if err != nil {
		return nil, err
	}
	n.clearBuffer(cmd, m)
	if len(rows) == 0 {
		return nil, nil
	}
	out := make([]Diff, len(rows))
	for i, r := range rows {
		out[i] = Diff{Kind: Insert, Post: r}
	}
	return out, nil
}

func (n *windowNode) Apply(cmd *txn.Command, in Change) (Change, error) {
	m, err := n.loadMeta(cmd)
	if err != nil {
		return Change{}, err
	}

	var out []Diff
	now := time.Now().UnixMilli()

	switch n.spec.Kind {
	case WindowTumblingTime:
		if m.startUnixMillis == 0 {
			m.startUnixMillis = now
		}
		if now-m.startUnixMillis >= n.spec.SizeMillis {
			closed, err := n.closeAndEmit(cmd, &m)
			if err != nil {
				return Change{}, err
			}
			out = append(out, closed...)
			m.startUnixMillis = now
		}
		for _, d := range in.Diffs {
			if d.Kind == Remove {
				continue // already-closed or never-buffered row: nothing to retract
			}
			n.appendRow(cmd, &m, d.Post)
		}

	case WindowTumblingCount:
		for _, d := range in.Diffs {
			if d.Kind == Remove {
				continue
			}
			n.appendRow(cmd, &m, d.Post)
			if int(m.count) >= n.spec.Count {
				closed, err := n.closeAndEmit(cmd, &m)
				if err != nil {
					return Change{}, err
				}
				out = append(out, closed...)
			}
		}

	case WindowCountRetained:
		for _, d := range in.Diffs {
			if d.Kind == Remove {
				continue
			}
			n.appendRow(cmd, &m, d.Post)
		}
		items, err := n.bufferItems(cmd)
		if err != nil {
			return Change{}, err
		}
		for len(items) > n.spec.Count {
			cmd.Remove(operatorTable(n.id), keycode.EncodeOperatorState(n.id, windowRowKey(items[0].seq)))
			items = items[1:]
			m.count--
		}
		if len(items) > 0 {
			out = make([]Diff, len(items))
			for i, it := range items {
				out[i] = Diff{Kind: Insert, Post: it.value}
			}
		}

	case WindowSliding:
		if m.startUnixMillis == 0 {
			m.startUnixMillis = now
		}
		for _, d := range in.Diffs {
			if d.Kind == Remove {
				continue
			}
			n.appendRow(cmd, &m, d.Post)
		}
		if now-m.startUnixMillis >= n.spec.SlideMillis {
			rows, err := n.bufferRange(cmd)
			if err != nil {
				return Change{}, err
			}
			out = make([]Diff, len(rows))
			for i, r := range rows {
				out[i] = Diff{Kind: Insert, Post: r}
			}
			m.startUnixMillis = now
		}
	}

	n.storeMeta(cmd, m)
	return Change{Origin: InternalOrigin(n.id), Diffs: out, Version: in.Version}, nil
}
