package flow

import (
	"github.com/reifydb/reifydb/internal/catalog"
	"github.com/reifydb/reifydb/internal/txn"
)

// sourceNode is the entry point of a flow graph: it carries no logic of
// its own, only re-tags an externally-sourced Change as having originated
// from this node before fanning it out to children (spec.md §4.I step 2-3).
type sourceNode struct {
	id       uint64
	sourceID uint64
}

func (n *sourceNode) ID() uint64                     { return n.id }
func (n *sourceNode) Kind() catalog.FlowNodeKind     { return catalog.FlowNodeSource }
func (n *sourceNode) Apply(_ *txn.Command, in Change) (Change, error) {
	return Change{Origin: InternalOrigin(n.id), Diffs: in.Diffs, Version: in.Version}, nil
}
