package flow

import (
	"testing"

	"github.com/reifydb/reifydb/internal/row"
)

func isPositive(r row.Values) (bool, error) {
	return len(r) > 0 && r[0] != 0, nil
}

func TestFilterPassesMatchingInsert(t *testing.T) {
	n := &filterNode{id: 1, predicate: isPositive}
	_, cmd := newTestCommand(t)
	out, err := n.Apply(cmd, Change{Diffs: []Diff{{Kind: Insert, Post: row.Values{1}}}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(out.Diffs) != 1 || out.Diffs[0].Kind != Insert {
		t.Fatalf("expected one passthrough insert, got %+v", out.Diffs)
	}
}

func TestFilterDropsFailingInsert(t *testing.T) {
	n := &filterNode{id: 1, predicate: isPositive}
	_, cmd := newTestCommand(t)
	out, err := n.Apply(cmd, Change{Diffs: []Diff{{Kind: Insert, Post: row.Values{0}}}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(out.Diffs) != 0 {
		t.Fatalf("expected no diffs, got %+v", out.Diffs)
	}
}

func TestFilterTurnsFailingUpdateIntoRemove(t *testing.T) {
	n := &filterNode{id: 1, predicate: isPositive}
	_, cmd := newTestCommand(t)
	out, err := n.Apply(cmd, Change{Diffs: []Diff{{Kind: Update, Pre: row.Values{1}, Post: row.Values{0}}}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(out.Diffs) != 1 || out.Diffs[0].Kind != Remove {
		t.Fatalf("expected one remove, got %+v", out.Diffs)
	}
}
