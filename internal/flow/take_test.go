package flow

import (
	"testing"

	"github.com/reifydb/reifydb/internal/row"
)

func TestTakePassesUpToLimit(t *testing.T) {
	n := &takeNode{id: 1, limit: 2}
	_, cmd := newTestCommand(t)

	out, err := n.Apply(cmd, Change{Diffs: []Diff{
		{Kind: Insert, Post: row.Values("a")},
		{Kind: Insert, Post: row.Values("b")},
		{Kind: Insert, Post: row.Values("c")},
	}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(out.Diffs) != 2 {
		t.Fatalf("expected exactly 2 diffs to pass, got %d", len(out.Diffs))
	}
}

func TestTakeFreesSlotOnRemove(t *testing.T) {
	n := &takeNode{id: 1, limit: 1}
	_, cmd := newTestCommand(t)

	if _, err := n.Apply(cmd, Change{Diffs: []Diff{{Kind: Insert, Post: row.Values("a")}}}); err != nil {
		t.Fatalf("apply 1: %v", err)
	}
	out, err := n.Apply(cmd, Change{Diffs: []Diff{{Kind: Insert, Post: row.Values("b")}}})
	if err != nil {
		t.Fatalf("apply 2: %v", err)
	}
	if len(out.Diffs) != 0 {
		t.Fatalf("expected second insert blocked while slot occupied, got %+v", out.Diffs)
	}

	if _, err := n.Apply(cmd, Change{Diffs: []Diff{{Kind: Remove, Pre: row.Values("a")}}}); err != nil {
		t.Fatalf("apply remove: %v", err)
	}
	out, err = n.Apply(cmd, Change{Diffs: []Diff{{Kind: Insert, Post: row.Values("c")}}})
	if err != nil {
		t.Fatalf("apply 3: %v", err)
	}
	if len(out.Diffs) != 1 {
		t.Fatalf("expected freed slot to admit a new insert, got %+v", out.Diffs)
	}
}
