package flow

import (
	"github.com/reifydb/reifydb/internal/catalog"
	"github.com/reifydb/reifydb/internal/kv"
	"github.com/reifydb/reifydb/internal/txn"
)

// sinkNode implements spec.md §4.I step 5: commits the flow's resulting
// mutations into the materialized view's backing source table under the
// consumer's transaction.
type sinkNode struct {
	id            uint64
	targetTableID uint64
	rowKey        RowKeyFunc
}

func (n *sinkNode) ID() uint64                 { return n.id }
func (n *sinkNode) Kind() catalog.FlowNodeKind { return catalog.FlowNodeSink }

func (n *sinkNode) Apply(cmd *txn.Command, in Change) (Change, error) {
	table := kv.SourceTableID(n.targetTableID)
	for _, d := range in.Diffs {
		switch d.Kind {
		case Insert:
			key, err := n.rowKey(d.Post)
			if err != nil {
				return Change{}, err
			}
			cmd.Set(table, key, d.Post)

		case Update:
			key, err := n.rowKey(d.Post)
			if err != nil {
				return Change{}, err
			}
			cmd.Set(table, key, d.Post)

		case Remove:
			key, err := n.rowKey(d.Pre)
			if err != nil {
				return Change{}, err
			}
			cmd.Remove(table, key)
		}
	}
	return Change{Origin: InternalOrigin(n.id), Diffs: nil, Version: in.Version}, nil
}
