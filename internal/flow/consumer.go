package flow

import (
	"fmt"

	"github.com/reifydb/reifydb/internal/cdc"
	"github.com/reifydb/reifydb/internal/row"
	"github.com/reifydb/reifydb/internal/txn"
)

// Registry holds the compiled Graphs of every active flow, indexed by the
// source table each graph reads from. A single source table can feed more
// than one flow (several materialized views built off the same base
// table), so each source maps to a slice.
type Registry struct {
	bySource map[uint64][]*Graph
}

// NewRegistry builds a Registry from a set of compiled graphs, indexing
// each by the source table ids its Source nodes were compiled against.
func NewRegistry(graphs []*Graph) *Registry {
	r := &Registry{bySource: make(map[uint64][]*Graph)}
	for _, g := range graphs {
		for sourceID := range g.bySource {
			r.bySource[sourceID] = append(r.bySource[sourceID], g)
		}
	}
	return r
}

// Handler returns a cdc.Handler that converts each CDC event into a flow
// Change and drives it through every graph registered against that
// event's source table (spec.md §4.I step 1-3).
//
// Dictionary-encoded columns are resolved against the catalog cache by the
// bound Predicate/Project/KeyFunc closures themselves, not here: those
// closures already receive the fully-decoded row and are the layer that
// knows which columns are dictionary-coded, so this function only needs to
// hand events through unchanged as row.Values.
func (r *Registry) Handler() func(cmd *txn.Command, events []cdc.Event) error {
	return func(cmd *txn.Command, events []cdc.Event) error {
		for _, ev := range events {
			graphs, ok := r.bySource[ev.Source.ID]
			if !ok {
				continue
			}
			diff, ok := convertChange(ev.Change)
			if !ok {
				continue
			}
			change := Change{
				Origin:  ExternalOrigin(ev.Source.ID),
				Diffs:   []Diff{diff},
				Version: ev.Version,
			}
			for _, g := range graphs {
				if err := g.Run(cmd, ev.Source.ID, change); err != nil {
					return fmt.Errorf("flow: running graph for source %d: %w", ev.Source.ID, err)
				}
			}
		}
		return nil
	}
}

func convertChange(c cdc.Change) (Diff, bool) {
	switch c.Kind {
	case cdc.Insert:
		return Diff{Kind: Insert, Post: row.Values(c.Post)}, true
	case cdc.Update:
		return Diff{Kind: Update, Pre: row.Values(c.Pre), Post: row.Values(c.Post)}, true
	case cdc.Delete:
		return Diff{Kind: Remove, Pre: row.Values(c.Pre)}, true
	default:
		return Diff{}, false
	}
}
