package flow

import "github.com/reifydb/reifydb/internal/row"

// Predicate evaluates a row for Filter (spec.md §4.J "Filter"). Bound by
// name from FlowNodeDef.Params rather than compiled here: the expression
// evaluator (internal/expr) owns turning RQL predicates into these
// closures, exactly as internal/interceptor resolves hooks by name/filter
// instead of embedding interception logic in the catalog.
type Predicate func(row.Values) (bool, error)

// Project computes a new row from an input row, for Map/Patch/Extend
// (spec.md §4.J "Map / Extend / Patch").
type Project func(row.Values) (row.Values, error)

// KeyFunc extracts a grouping/join/distinct key from a row.
type KeyFunc func(row.Values) (string, error)

// Accumulator implements one Aggregate operator's per-group running state
// (spec.md §4.J "Aggregate"). State is opaque and persisted by the caller
// between batches, so an implementation may use whatever encoding it likes
// (sum/count as an 16-byte pair, min/max as a raw row.Values, ...).
type Accumulator interface {
	Zero() []byte
	Add(state []byte, r row.Values) ([]byte, error)
	Remove(state []byte, r row.Values) ([]byte, error)
	Result(state []byte) (row.Values, error)
}

// RowKeyFunc derives the physical table row key a Sink writes a row under,
// typically the table's primary key columns encoded via row.EncodeKey or
// equivalent.
type RowKeyFunc func(row.Values) ([]byte, error)

// Bindings resolves the named hooks a compiled FlowNodeDef.Params refers
// to. CompileGraph looks names up here instead of the catalog storing
// executable code, keeping internal/flow decoupled from internal/expr the
// same way internal/mvcc is decoupled from internal/cdc via the CdcWriter
// interface.
type Bindings struct {
	Predicates   map[string]Predicate
	Projects     map[string]Project
	KeyFuncs     map[string]KeyFunc
	Accumulators map[string]Accumulator
	RowKeys      map[string]RowKeyFunc
}
