package flow

import (
	"github.com/reifydb/reifydb/internal/catalog"
	"github.com/reifydb/reifydb/internal/txn"
)

// filterNode implements spec.md §4.J "Filter": diffs whose post satisfies
// the predicate pass through; an Update whose post fails becomes a Remove
// of its pre (the row is leaving the view's visible set).
type filterNode struct {
	id        uint64
	predicate Predicate
}

func (n *filterNode) ID() uint64                 { return n.id }
func (n *filterNode) Kind() catalog.FlowNodeKind { return catalog.FlowNodeFilter }

func (n *filterNode) Apply(_ *txn.Command, in Change) (Change, error) {
	out := make([]Diff, 0, len(in.Diffs))
	for _, d := range in.Diffs {
		switch d.Kind {
		case Remove:
			out = append(out, d) // a row leaving never needs re-filtering
			continue
		}
		ok, err := n.predicate(d.Post)
		if err != nil {
			return Change{}, err
		}
		switch {
		case ok:
			out = append(out, d)
		case d.Kind == Update:
			out = append(out, Diff{Kind: Remove, Pre: d.Pre})
		}
	}
	return Change{Origin: InternalOrigin(n.id), Diffs: out, Version: in.Version}, nil
}
