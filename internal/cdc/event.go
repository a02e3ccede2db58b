// Package cdc implements the change-data-capture log and consumer
// framework (spec.md §4.H): a CdcWriter that turns a commit's raw deltas
// into a durable, ordered event log, and a scheduler that drives
// independent consumers (flow engine, dictionary GC, subscription
// dispatch) over that log at their own pace.
package cdc

import (
	"github.com/reifydb/reifydb/internal/kv"
)

// ChangeKind discriminates the three shapes a CdcChange can take
// (spec.md glossary "CdcEvent").
type ChangeKind int

const (
	Insert ChangeKind = iota
	Update
	Delete
)

func (k ChangeKind) String() string {
	switch k {
	case Insert:
		return "Insert"
	case Update:
		return "Update"
	case Delete:
		return "Delete"
	default:
		return "Unknown"
	}
}

// Change is a CdcChange: Insert carries only Post, Delete only Pre, Update
// both. Pre/Post are the raw delta values as committed, opaque to this
// package.
type Change struct {
	Kind ChangeKind
	Pre  []byte
	Post []byte
}

// Event is a CdcEvent: one logical-key change at one commit version,
// tagged with the source table it belongs to.
type Event struct {
	Version uint64
	Source  kv.TableID
	Key     []byte
	Change  Change
}
