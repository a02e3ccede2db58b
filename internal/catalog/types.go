// Package catalog implements the system catalog (spec.md §4.F): namespace,
// table, view, column, primary-key, flow, and subscription definitions,
// backed by the same mvcc store as ordinary table data, with a per-version
// materialized cache and a per-transaction change overlay in front of it.
package catalog

import "github.com/reifydb/reifydb/internal/row"

// NamespaceDef names a top-level grouping of tables and views, analogous to
// a SQL schema.
type NamespaceDef struct {
	ID   uint64
	Name string
}

// ColumnDef describes one column of a table or view.
type ColumnDef struct {
	ID       uint64
	SourceID uint64 // owning table or view ID
	Name     string
	Type     row.Type
	Position int
}

// PrimaryKeyDef names the ordered set of columns forming a table's primary
// key.
type PrimaryKeyDef struct {
	TableID   uint64
	ColumnIDs []uint64
}

// TableDef is a namespace-scoped base table.
type TableDef struct {
	ID          uint64
	NamespaceID uint64
	Name        string
}

// ViewDef is a namespace-scoped materialized view, backed by a FlowDef.
type ViewDef struct {
	ID          uint64
	NamespaceID uint64
	Name        string
	FlowID      uint64
}

// FlowDef is a compiled flow graph: a DAG of FlowNodeDef connected by
// FlowEdgeDef, reading from one or more source tables and writing to a
// view's backing table.
type FlowDef struct {
	ID   uint64
	Name string
}

// FlowNodeKind discriminates a flow operator (spec.md §4.I/§4.J).
type FlowNodeKind uint8

const (
	FlowNodeSource FlowNodeKind = iota
	FlowNodeFilter
	FlowNodeMap
	FlowNodePatch
	FlowNodeExtend
	FlowNodeJoin
	FlowNodeAggregate
	FlowNodeDistinct
	FlowNodeTake
	FlowNodeWindow
	FlowNodeSink
)

func (k FlowNodeKind) String() string {
	names := [...]string{
		"Source", "Filter", "Map", "Patch", "Extend",
		"Join", "Aggregate", "Distinct", "Take", "Window", "Sink",
	}
	if int(k) < 0 || int(k) >= len(names) {
		return "Unknown"
	}
	return names[k]
}

// FlowNodeDef is one node of a flow graph. Params is kind-specific and left
// opaque to the catalog (interpreted by internal/flow when the graph is
// instantiated).
type FlowNodeDef struct {
	ID     uint64
	FlowID uint64
	Kind   FlowNodeKind
	Params []byte
}

// FlowEdgeDef is a directed dependency edge between two nodes of the same
// flow: changes at From propagate to To.
type FlowEdgeDef struct {
	ID     uint64
	FlowID uint64
	From   uint64
	To     uint64
}

// SubscriptionDef registers an external consumer of a table or view's CDC
// stream, identified by a durable ID so its cursor survives restarts.
type SubscriptionDef struct {
	ID       uint64
	SourceID uint64
	Name     string
}
