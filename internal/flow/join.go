package flow

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/reifydb/reifydb/internal/catalog"
	"github.com/reifydb/reifydb/internal/keycode"
	"github.com/reifydb/reifydb/internal/reifyerr"
	"github.com/reifydb/reifydb/internal/row"
	"github.com/reifydb/reifydb/internal/txn"
)

// joinNode implements spec.md §4.J "Join (inner)"/"Join (left)": a
// per-side hash index keyed by the join key, maintained incrementally in
// operator state so a commit only ever probes the opposite side's index
// instead of rescanning both upstreams.
type joinNode struct {
	id                      uint64
	strategy                JoinStrategy
	leftKey, rightKey       KeyFunc
	leftNodeID, rightNodeID uint64 // set by CompileGraph from edge order
}

func (n *joinNode) ID() uint64                 { return n.id }
func (n *joinNode) Kind() catalog.FlowNodeKind { return catalog.FlowNodeJoin }

func (n *joinNode) Apply(*txn.Command, Change) (Change, error) {
	return Change{}, reifyerr.Internal("flow: join node applied without side information, use ApplyFrom")
}

const (
	joinSideLeft  byte = 0
	joinSideRight byte = 1
)

func (n *joinNode) ApplyFrom(cmd *txn.Command, fromNodeID uint64, in Change) (Change, error) {
	var side, otherSide byte
	var keyOf KeyFunc
	switch fromNodeID {
	case n.leftNodeID:
		side, otherSide, keyOf = joinSideLeft, joinSideRight, n.leftKey
	case n.rightNodeID:
		side, otherSide, keyOf = joinSideRight, joinSideLeft, n.rightKey
	default:
		return Change{}, reifyerr.Internal("flow: join node received change from unrecognized upstream")
	}

	var out []Diff
	for _, d := range in.Diffs {
		switch d.Kind {
		case Insert:
			k, err := keyOf(d.Post)
			if err != nil {
				return Change{}, err
			}
			if err := n.indexPut(cmd, side, k, d.Post); err != nil {
				return Change{}, err
			}
			matches, err := n.indexScan(cmd, otherSide, k)
			if err != nil {
				return Change{}, err
			}
			out = append(out, n.emitJoined(side, d.Post, matches, Insert)...)

		case Update:
			oldKey, err := keyOf(d.Pre)
			if err != nil {
				return Change{}, err
			}
			if err := n.indexRemove(cmd, side, oldKey, d.Pre); err != nil {
				return Change{}, err
			}
			newKey, err := keyOf(d.Post)
			if err != nil {
				return Change{}, err
			}
			if err := n.indexPut(cmd, side, newKey, d.Post); err != nil {
				return Change{}, err
			}
			oldMatches, err := n.indexScan(cmd, otherSide, oldKey)
			if err != nil {
				return Change{}, err
			}
			out = append(out, n.emitJoined(side, d.Pre, oldMatches, Remove)...)
			newMatches, err := n.indexScan(cmd, otherSide, newKey)
			if err != nil {
				return Change{}, err
			}
			out = append(out, n.emitJoined(side, d.Post, newMatches, Insert)...)

		case Remove:
			k, err := keyOf(d.Pre)
			if err != nil {
				return Change{}, err
			}
			if err := n.indexRemove(cmd, side, k, d.Pre); err != nil {
				return Change{}, err
			}
			matches, err := n.indexScan(cmd, otherSide, k)
			if err != nil {
				return Change{}, err
			}
			out = append(out, n.emitJoined(side, d.Pre, matches, Remove)...)
		}
	}
	return Change{Origin: InternalOrigin(n.id), Diffs: out, Version: in.Version}, nil
}

// emitJoined cross-products one row of `side` against `matches` from the
// other side, tagging the result with the requested diff kind. For a left
// join, an insert/remove on the left side with no right-side matches still
// emits one row with right-side columns undefined (spec.md §4.J "Join
// (left)").
func (n *joinNode) emitJoined(side byte, r row.Values, matches []row.Values, kind DiffKind) []Diff {
	if len(matches) == 0 {
		if n.strategy == JoinLeft && side == joinSideLeft {
			combined := combineRows(r, nil)
			return []Diff{{Kind: kind, Pre: pickPre(kind, combined), Post: pickPost(kind, combined)}}
		}
		return nil
	}
	out := make([]Diff, 0, len(matches))
	for _, m := range matches {
		var combined row.Values
		if side == joinSideLeft {
			combined = combineRows(r, m)
		} else {
			combined = combineRows(m, r)
		}
		out = append(out, Diff{Kind: kind, Pre: pickPre(kind, combined), Post: pickPost(kind, combined)})
	}
	return out
}

func pickPre(kind DiffKind, v row.Values) row.Values {
	if kind == Remove {
		return v
	}
	return nil
}

func pickPost(kind DiffKind, v row.Values) row.Values {
	if kind == Insert {
		return v
	}
	return nil
}

// combineRows encodes a joined row as the 4-byte big-endian length of left,
// then left's bytes, then right's bytes. Both are already fully packed
// row.Values; the length prefix marks where the right segment begins, so
// this is a valid encoding as long as downstream nodes agree on the combined schema
// (the bound Project/Predicate closures for the view do, by construction
// of the flow). right == nil encodes a left join's unmatched-right case as
// a zero-length right payload; downstream closures must treat a
// zero-length second segment as all-Undefined.
func combineRows(left, right row.Values) row.Values {
	out := make(row.Values, 0, len(left)+4+len(right))
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(left)))
	out = append(out, lenBuf[:]...)
	out = append(out, left...)
	out = append(out, right...)
	return out
}

func joinStateKey(side byte, key string, r row.Values) []byte {
	out := make([]byte, 0, 1+4+len(key)+8)
	out = append(out, side)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(key)))
	out = append(out, lenBuf[:]...)
	out = append(out, key...)
	h := fnv.New64a()
	h.Write(r)
	var hashBuf [8]byte
	binary.BigEndian.PutUint64(hashBuf[:], h.Sum64())
	return append(out, hashBuf[:]...)
}

func joinStatePrefix(side byte, key string) []byte {
	out := make([]byte, 0, 1+4+len(key))
	out = append(out, side)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(key)))
	out = append(out, lenBuf[:]...)
	return append(out, key...)
}

func (n *joinNode) indexPut(cmd *txn.Command, side byte, key string, r row.Values) error {
	cmd.Set(operatorTable(n.id), keycode.EncodeOperatorState(n.id, joinStateKey(side, key, r)), r)
	return nil
}

func (n *joinNode) indexRemove(cmd *txn.Command, side byte, key string, r row.Values) error {
	cmd.Remove(operatorTable(n.id), keycode.EncodeOperatorState(n.id, joinStateKey(side, key, r)))
	return nil
}

func (n *joinNode) indexScan(cmd *txn.Command, side byte, key string) ([]row.Values, error) {
	prefixPayload := joinStatePrefix(side, key)
	full := keycode.NewBuilder(keycode.KindOperatorState).PutUint64(n.id).PutRawBytes(prefixPayload).Bytes()
	start, end := keycode.PrefixRange(keycode.KindOperatorState, full[2:])
	items, err := cmd.Range(operatorTable(n.id), start, end)
	if err != nil {
		return nil, err
	}
	out := make([]row.Values, len(items))
	for i, it := range items {
		out[i] = it.Value
	}
	return out, nil
}
