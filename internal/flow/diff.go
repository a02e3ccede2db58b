// Package flow implements the flow engine (spec.md §4.I/§4.J): a DAG of
// operator nodes compiled from a catalog.FlowDef, driven by CDC events on
// its source tables and propagating FlowDiff batches to a materialized
// view's backing table.
//
// Diffs carry whole rows (internal/row.Values), not per-column containers:
// the teacher's own query engine is row-oriented (internal/engine/exec.go's
// ResultSet.Rows), and every operator here only ever needs to compare or
// rewrite one row at a time, so a columnar batch format buys nothing this
// package would exploit. A Batch is simply the set of diffs produced by one
// FlowChange; "columnar" in spec.md §4.K refers to the executor's own scan
// path over internal/row's packed layout, not to how the flow engine moves
// deltas between operators.
package flow

import "github.com/reifydb/reifydb/internal/row"

// DiffKind discriminates one FlowDiff variant (spec.md glossary
// "FlowDiff ∈ { Insert{post}, Update{pre, post}, Remove{pre} }").
type DiffKind int

const (
	Insert DiffKind = iota
	Update
	Remove
)

func (k DiffKind) String() string {
	switch k {
	case Insert:
		return "Insert"
	case Update:
		return "Update"
	case Remove:
		return "Remove"
	default:
		return "Unknown"
	}
}

// Diff is one row-level change flowing along a flow edge.
type Diff struct {
	Kind DiffKind
	Pre  row.Values // set for Update, Remove
	Post row.Values // set for Insert, Update
}

// OriginKind discriminates a FlowChange's origin (spec.md glossary
// "origin: External(SourceId) | Internal(FlowNodeId)").
type OriginKind int

const (
	OriginExternal OriginKind = iota
	OriginInternal
)

// Origin identifies where a FlowChange entered the graph: an external CDC
// source table, or an upstream operator node.
type Origin struct {
	Kind OriginKind
	ID   uint64 // SourceId for External, FlowNodeId for Internal
}

// ExternalOrigin builds an Origin for a CDC-sourced change.
func ExternalOrigin(sourceID uint64) Origin { return Origin{Kind: OriginExternal, ID: sourceID} }

// InternalOrigin builds an Origin for a change produced by an operator.
func InternalOrigin(nodeID uint64) Origin { return Origin{Kind: OriginInternal, ID: nodeID} }

// Change is a FlowChange: a batch of diffs produced at one commit version,
// tagged with where it came from.
type Change struct {
	Origin  Origin
	Diffs   []Diff
	Version uint64
}
