package flow

import (
	"github.com/reifydb/reifydb/internal/catalog"
	"github.com/reifydb/reifydb/internal/row"
	"github.com/reifydb/reifydb/internal/txn"
)

// projectNode implements spec.md §4.J "Map / Extend / Patch". The three
// kinds differ only in what the bound Project closure does with a row
// (project columns down, append computed columns, or merge-by-name) — the
// node itself just applies it uniformly to whichever of pre/post a diff
// carries, which is identical regardless of kind.
type projectNode struct {
	id      uint64
	kind    catalog.FlowNodeKind
	project Project
}

func (n *projectNode) ID() uint64                 { return n.id }
func (n *projectNode) Kind() catalog.FlowNodeKind { return n.kind }

func (n *projectNode) Apply(_ *txn.Command, in Change) (Change, error) {
	out := make([]Diff, len(in.Diffs))
	for i, d := range in.Diffs {
		nd := Diff{Kind: d.Kind}
		var err error
		if d.Pre != nil {
			if nd.Pre, err = n.projectRow(d.Pre); err != nil {
				return Change{}, err
			}
		}
		if d.Post != nil {
			if nd.Post, err = n.projectRow(d.Post); err != nil {
				return Change{}, err
			}
		}
		out[i] = nd
	}
	return Change{Origin: InternalOrigin(n.id), Diffs: out, Version: in.Version}, nil
}

func (n *projectNode) projectRow(r row.Values) (row.Values, error) {
	return n.project(r)
}
