package flow

import (
	"encoding/binary"

	"github.com/reifydb/reifydb/internal/catalog"
	"github.com/reifydb/reifydb/internal/keycode"
	"github.com/reifydb/reifydb/internal/row"
	"github.com/reifydb/reifydb/internal/txn"
)

// aggregateNode implements spec.md §4.J "Aggregate": one Accumulator state
// blob per group key, persisted in operator state so a restart or a later
// commit resumes from the exact running total rather than recomputing it.
type aggregateNode struct {
	id          uint64
	groupKey    KeyFunc
	accumulator Accumulator
}

func (n *aggregateNode) ID() uint64                 { return n.id }
func (n *aggregateNode) Kind() catalog.FlowNodeKind { return catalog.FlowNodeAggregate }

func (n *aggregateNode) Apply(cmd *txn.Command, in Change) (Change, error) {
	var out []Diff
	for _, d := range in.Diffs {
		switch d.Kind {
		case Insert:
			diff, err := n.add(cmd, d.Post)
			if err != nil {
				return Change{}, err
			}
			if diff != nil {
				out = append(out, *diff)
			}

		case Remove:
			diff, err := n.remove(cmd, d.Pre)
			if err != nil {
				return Change{}, err
			}
			if diff != nil {
				out = append(out, *diff)
			}

		case Update:
			// Treated as Remove pre + Insert post, coalesced into a single
			// Update so downstream sees one row mutation per input row
			// mutation instead of a spurious remove/insert pair.
			oldKey, err := n.groupKey(d.Pre)
			if err != nil {
				return Change{}, err
			}
			newKey, err := n.groupKey(d.Post)
			if err != nil {
				return Change{}, err
			}
			if oldKey == newKey {
				preResult, err := n.currentResult(cmd, oldKey)
				if err != nil {
					return Change{}, err
				}
				state, err := n.loadState(cmd, oldKey)
				if err != nil {
					return Change{}, err
				}
				state, err = n.accumulator.Remove(state, d.Pre)
				if err != nil {
					return Change{}, err
				}
				state, err = n.accumulator.Add(state, d.Post)
				if err != nil {
					return Change{}, err
				}
				if err := n.storeState(cmd, oldKey, state); err != nil {
					return Change{}, err
				}
				postResult, err := n.accumulator.Result(state)
				if err != nil {
					return Change{}, err
				}
				out = append(out, Diff{Kind: Update, Pre: preResult, Post: postResult})
				continue
			}
			removeDiff, err := n.remove(cmd, d.Pre)
			if err != nil {
				return Change{}, err
			}
			if removeDiff != nil {
				out = append(out, *removeDiff)
			}
			addDiff, err := n.add(cmd, d.Post)
			if err != nil {
				return Change{}, err
			}
			if addDiff != nil {
				out = append(out, *addDiff)
			}
		}
	}
	return Change{Origin: InternalOrigin(n.id), Diffs: out, Version: in.Version}, nil
}

func (n *aggregateNode) add(cmd *txn.Command, r row.Values) (*Diff, error) {
	key, err := n.groupKey(r)
	if err != nil {
		return nil, err
	}
	existed, oldResult, err := n.tryCurrentResult(cmd, key)
	if err != nil {
		return nil, err
	}
	state, err := n.loadState(cmd, key)
	if err != nil {
		return nil, err
	}
	state, err = n.accumulator.Add(state, r)
	if err != nil {
		return nil, err
	}
	if err := n.storeState(cmd, key, state); err != nil {
		return nil, err
	}
	newResult, err := n.accumulator.Result(state)
	if err != nil {
		return nil, err
	}
	if existed {
		return &Diff{Kind: Update, Pre: oldResult, Post: newResult}, nil
	}
	return &Diff{Kind: Insert, Post: newResult}, nil
}

func (n *aggregateNode) remove(cmd *txn.Command, r row.Values) (*Diff, error) {
	key, err := n.groupKey(r)
	if err != nil {
		return nil, err
	}
	oldResult, err := n.currentResult(cmd, key)
	if err != nil {
		return nil, err
	}
	state, err := n.loadState(cmd, key)
	if err != nil {
		return nil, err
	}
	state, err = n.accumulator.Remove(state, r)
	if err != nil {
		return nil, err
	}
	if isZeroState(state, n.accumulator.Zero()) {
		cmd.Remove(operatorTable(n.id), keycode.EncodeOperatorState(n.id, aggregateStateKey(key)))
		return &Diff{Kind: Remove, Pre: oldResult}, nil
	}
	if err := n.storeState(cmd, key, state); err != nil {
		return nil, err
	}
	newResult, err := n.accumulator.Result(state)
	if err != nil {
		return nil, err
	}
	return &Diff{Kind: Update, Pre: oldResult, Post: newResult}, nil
}

func isZeroState(state, zero []byte) bool {
	if len(state) != len(zero) {
		return false
	}
	for i := range state {
		if state[i] != zero[i] {
			return false
		}
	}
	return true
}

func aggregateStateKey(groupKey string) []byte {
	out := make([]byte, 0, 4+len(groupKey))
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(groupKey)))
	out = append(out, lenBuf[:]...)
	return append(out, groupKey...)
}

func (n *aggregateNode) loadState(cmd *txn.Command, groupKey string) ([]byte, error) {
	v, found, err := cmd.Get(operatorTable(n.id), keycode.EncodeOperatorState(n.id, aggregateStateKey(groupKey)))
	if err != nil {
		return nil, err
	}
	if !found {
		return n.accumulator.Zero(), nil
	}
	return v, nil
}

func (n *aggregateNode) storeState(cmd *txn.Command, groupKey string, state []byte) error {
	cmd.Set(operatorTable(n.id), keycode.EncodeOperatorState(n.id, aggregateStateKey(groupKey)), state)
	return nil
}

// currentResult returns the group's current aggregate result, or the
// accumulator's zero result if the group has never been touched.
func (n *aggregateNode) currentResult(cmd *txn.Command, groupKey string) (row.Values, error) {
	state, err := n.loadState(cmd, groupKey)
	if err != nil {
		return nil, err
	}
	return n.accumulator.Result(state)
}

func (n *aggregateNode) tryCurrentResult(cmd *txn.Command, groupKey string) (existed bool, result row.Values, err error) {
	_, found, err := cmd.Get(operatorTable(n.id), keycode.EncodeOperatorState(n.id, aggregateStateKey(groupKey)))
	if err != nil {
		return false, nil, err
	}
	if !found {
		return false, nil, nil
	}
	res, err := n.currentResult(cmd, groupKey)
	return true, res, err
}
