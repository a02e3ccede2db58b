package flow

import (
	"encoding/binary"

	"github.com/reifydb/reifydb/internal/catalog"
	"github.com/reifydb/reifydb/internal/keycode"
	"github.com/reifydb/reifydb/internal/txn"
)

// takeNode implements spec.md §4.J "Take": the first N rows seen pass
// through; later inserts beyond the limit are dropped. A removal of a row
// that already passed frees a slot, letting the node keep emitting exactly
// N live rows downstream over time rather than permanently capping at the
// first N ever seen.
type takeNode struct {
	id    uint64
	limit int
}

func (n *takeNode) ID() uint64                 { return n.id }
func (n *takeNode) Kind() catalog.FlowNodeKind { return catalog.FlowNodeTake }

var takeCountKey = []byte("count")

func (n *takeNode) Apply(cmd *txn.Command, in Change) (Change, error) {
	count, err := n.loadCount(cmd)
	if err != nil {
		return Change{}, err
	}

	var out []Diff
	for _, d := range in.Diffs {
		switch d.Kind {
		case Insert:
			if count < n.limit {
				count++
				out = append(out, d)
			}

		case Remove:
			if count > 0 {
				count--
				out = append(out, d)
			}

		case Update:
			// The row already occupies a slot; passing it through never
			// changes the occupied count.
			if count > 0 {
				out = append(out, d)
			}
		}
	}

	if err := n.storeCount(cmd, count); err != nil {
		return Change{}, err
	}
	return Change{Origin: InternalOrigin(n.id), Diffs: out, Version: in.Version}, nil
}

func (n *takeNode) loadCount(cmd *txn.Command) (int, error) {
	v, found, err := cmd.Get(operatorTable(n.id), keycode.EncodeOperatorState(n.id, takeCountKey))
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	return int(binary.BigEndian.Uint64(v)), nil
}

func (n *takeNode) storeCount(cmd *txn.Command, count int) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(count))
	cmd.Set(operatorTable(n.id), keycode.EncodeOperatorState(n.id, takeCountKey), buf[:])
	return nil
}
