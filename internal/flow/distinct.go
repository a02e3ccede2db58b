package flow

import (
	"encoding/binary"

	"github.com/reifydb/reifydb/internal/catalog"
	"github.com/reifydb/reifydb/internal/keycode"
	"github.com/reifydb/reifydb/internal/txn"
)

// distinctNode implements spec.md §4.J "Distinct": a reference-counted set
// of seen keys. The first Insert for a key passes through; later inserts of
// the same key only bump the count. A Remove decrements and only passes
// through once the count reaches zero.
type distinctNode struct {
	id  uint64
	key KeyFunc
}

func (n *distinctNode) ID() uint64                 { return n.id }
func (n *distinctNode) Kind() catalog.FlowNodeKind { return catalog.FlowNodeDistinct }

func (n *distinctNode) Apply(cmd *txn.Command, in Change) (Change, error) {
	var out []Diff
	for _, d := range in.Diffs {
		switch d.Kind {
		case Insert:
			k, err := n.key(d.Post)
			if err != nil {
				return Change{}, err
			}
			count, err := n.loadCount(cmd, k)
			if err != nil {
				return Change{}, err
			}
			if err := n.storeCount(cmd, k, count+1); err != nil {
				return Change{}, err
			}
			if count == 0 {
				out = append(out, d)
			}

		case Remove:
			k, err := n.key(d.Pre)
			if err != nil {
				return Change{}, err
			}
			count, err := n.loadCount(cmd, k)
			if err != nil {
				return Change{}, err
			}
			if count == 0 {
				continue // removing a key we never counted: ignore
			}
			if count == 1 {
				n.removeCount(cmd, k)
				out = append(out, d)
			} else {
				if err := n.storeCount(cmd, k, count-1); err != nil {
					return Change{}, err
				}
			}

		case Update:
			oldKey, err := n.key(d.Pre)
			if err != nil {
				return Change{}, err
			}
			newKey, err := n.key(d.Post)
			if err != nil {
				return Change{}, err
			}
			if oldKey == newKey {
				continue // distinct key unchanged: no visible effect
			}
			removeDiffs, err := n.Apply(cmd, Change{Diffs: []Diff{{Kind: Remove, Pre: d.Pre}}})
			if err != nil {
				return Change{}, err
			}
			out = append(out, removeDiffs.Diffs...)
			addDiffs, err := n.Apply(cmd, Change{Diffs: []Diff{{Kind: Insert, Post: d.Post}}})
			if err != nil {
				return Change{}, err
			}
			out = append(out, addDiffs.Diffs...)
		}
	}
	return Change{Origin: InternalOrigin(n.id), Diffs: out, Version: in.Version}, nil
}

func distinctStateKey(key string) []byte {
	out := make([]byte, 0, 4+len(key))
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(key)))
	out = append(out, lenBuf[:]...)
	return append(out, key...)
}

func (n *distinctNode) loadCount(cmd *txn.Command, key string) (uint64, error) {
	v, found, err := cmd.Get(operatorTable(n.id), keycode.EncodeOperatorState(n.id, distinctStateKey(key)))
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	return binary.BigEndian.Uint64(v), nil
}

func (n *distinctNode) storeCount(cmd *txn.Command, key string, count uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], count)
	cmd.Set(operatorTable(n.id), keycode.EncodeOperatorState(n.id, distinctStateKey(key)), buf[:])
	return nil
}

func (n *distinctNode) removeCount(cmd *txn.Command, key string) {
	cmd.Remove(operatorTable(n.id), keycode.EncodeOperatorState(n.id, distinctStateKey(key)))
}
