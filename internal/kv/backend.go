// Package kv implements the primitive storage backend (spec.md §4.B): raw
// key-value access over a fixed set of logical tables, with atomic
// multi-table commits and forward/reverse range scans. Higher layers
// (internal/mvcc) compose logical keys out of (key, version) and rely on
// this package only for byte-level storage and ordering.
package kv

import (
	"bytes"
	"fmt"
)

// TableID identifies one of the logical tables the backend addresses.
// Source and Operator tables are parameterized by the owning entity's id so
// that every flow/table gets its own isolated key space (spec.md I6).
type TableID struct {
	Kind TableKind
	ID   uint64 // meaningful only for Source/Operator kinds
}

// TableKind enumerates the fixed families of logical tables.
type TableKind uint8

const (
	Multi TableKind = iota
	Single
	Cdc
	Source
	Operator
)

func (k TableKind) String() string {
	switch k {
	case Multi:
		return "Multi"
	case Single:
		return "Single"
	case Cdc:
		return "Cdc"
	case Source:
		return "Source"
	case Operator:
		return "Operator"
	default:
		return fmt.Sprintf("TableKind(%d)", uint8(k))
	}
}

// String gives a stable, human-readable identity for a TableID, also used
// as the SQLite adapter's per-table table name.
func (t TableID) String() string {
	switch t.Kind {
	case Source, Operator:
		return fmt.Sprintf("%s_%d", t.Kind, t.ID)
	default:
		return t.Kind.String()
	}
}

// MultiTable addresses the shared multi-version table data lives in.
var MultiTable = TableID{Kind: Multi}

// SingleTable addresses the single-version table used for counters and
// other non-versioned bookkeeping (sequences, the version provider).
var SingleTable = TableID{Kind: Single}

// CdcTable addresses the change-data-capture log.
var CdcTable = TableID{Kind: Cdc}

// SourceTableID addresses the per-source-table key space (table rows).
func SourceTableID(id uint64) TableID { return TableID{Kind: Source, ID: id} }

// OperatorTableID addresses one flow operator's private key space.
func OperatorTableID(id uint64) TableID { return TableID{Kind: Operator, ID: id} }

// Write is a single put-or-delete within a batch. Value == nil means delete.
type Write struct {
	Key   []byte
	Value []byte // nil = delete
}

// Entry is a single key/value pair returned by a range scan.
type Entry struct {
	Key   []byte
	Value []byte
}

// RangeResult is a page of a range scan plus a continuation flag.
type RangeResult struct {
	Entries []Entry
	HasMore bool
}

// Backend is the primitive storage contract (spec.md §4.B). All
// implementations must make Set atomic across every table touched in a
// single call.
type Backend interface {
	// Get returns the value stored at key in the given table, or
	// (nil, false) if absent.
	Get(table TableID, key []byte) ([]byte, bool, error)

	// Set applies a batch of writes atomically across every table named
	// in the map.
	Set(batches map[TableID][]Write) error

	// RangeBatch scans forward over [start, end) and returns up to n
	// entries, lexicographically ordered.
	RangeBatch(table TableID, start, end []byte, n int) (RangeResult, error)

	// RangeBatchReverse scans backward over [start, end) (i.e. from the
	// largest key below end down to start) and returns up to n entries.
	RangeBatchReverse(table TableID, start, end []byte, n int) (RangeResult, error)

	// EnsureTable creates the logical table if it does not already
	// exist. Implementations that don't need explicit creation (e.g. the
	// in-memory backend) may treat this as a no-op.
	EnsureTable(table TableID) error

	// ClearTable removes every entry from a logical table.
	ClearTable(table TableID) error

	// Close releases any resources (file handles, writer goroutines).
	Close() error
}

// keyLess is the single ordering used throughout: plain byte-lexicographic
// comparison. Higher layers achieve "reverse" ordering by inverting bits at
// encode time (see internal/keycode), not by changing this comparator.
func keyLess(a, b []byte) bool { return bytes.Compare(a, b) < 0 }
