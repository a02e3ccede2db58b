// Package exec implements the pull-based columnar executor (spec.md §4.K):
// a tree of physical Nodes, each exposing initialize/next/headers exactly as
// the teacher's internal/engine exposes its row-at-a-time plan nodes, except
// every Next call here returns a whole expr.Batch instead of one Row.
package exec

import (
	"github.com/reifydb/reifydb/internal/expr"
	"github.com/reifydb/reifydb/internal/row"
	"github.com/reifydb/reifydb/internal/txn"
)

// Batch is the unit every Node passes to its parent: a whole columnar batch,
// not a single row.
type Batch = expr.Batch

// Column is re-exported for convenience so callers building plans don't need
// to import internal/expr directly just to construct batches.
type Column = expr.Column

// Header names one output column of a Node, mirroring spec.md §4.K's
// "headers() -> ColumnHeaders".
type Header struct {
	Name string
	Type row.Type
}

// Node is one physical operator in a query plan. Next returns (nil, nil)
// once the node is exhausted, matching spec.md §4.K's "next(txn, ctx) ->
// Option<Batch>" without needing a separate sentinel type.
type Node interface {
	Initialize(q *txn.Query) error
	Next(q *txn.Query) (*Batch, error)
	Headers() []Header
}

// DefaultBatchSize is the row count each Scan pulls per underlying cursor
// fetch, matching the fetch granularity internal/mvcc.Cursor already uses
// internally.
const DefaultBatchSize = 256
