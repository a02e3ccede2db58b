package flow

import (
	"strings"
	"testing"

	"github.com/reifydb/reifydb/internal/row"
)

// joinRow encodes "key|payload" as a plain string row for test purposes.
func joinRow(key, payload string) row.Values { return row.Values(key + "|" + payload) }

func joinRowKey(r row.Values) (string, error) {
	parts := strings.SplitN(string(r), "|", 2)
	return parts[0], nil
}

func TestInnerJoinEmitsOnMatchFromEitherSide(t *testing.T) {
	n := &joinNode{id: 1, strategy: JoinInner, leftKey: joinRowKey, rightKey: joinRowKey, leftNodeID: 10, rightNodeID: 20}
	_, cmd := newTestCommand(t)

	out, err := n.ApplyFrom(cmd, 10, Change{Diffs: []Diff{{Kind: Insert, Post: joinRow("k1", "left-a")}}})
	if err != nil {
		t.Fatalf("left insert: %v", err)
	}
	if len(out.Diffs) != 0 {
		t.Fatalf("expected no match yet, got %+v", out.Diffs)
	}

	out, err = n.ApplyFrom(cmd, 20, Change{Diffs: []Diff{{Kind: Insert, Post: joinRow("k1", "right-a")}}})
	if err != nil {
		t.Fatalf("right insert: %v", err)
	}
	if len(out.Diffs) != 1 || out.Diffs[0].Kind != Insert {
		t.Fatalf("expected one joined insert once both sides present, got %+v", out.Diffs)
	}
}

func TestLeftJoinEmitsUnmatchedRow(t *testing.T) {
	n := &joinNode{id: 1, strategy: JoinLeft, leftKey: joinRowKey, rightKey: joinRowKey, leftNodeID: 10, rightNodeID: 20}
	_, cmd := newTestCommand(t)

	out, err := n.ApplyFrom(cmd, 10, Change{Diffs: []Diff{{Kind: Insert, Post: joinRow("k1", "left-only")}}})
	if err != nil {
		t.Fatalf("left insert: %v", err)
	}
	if len(out.Diffs) != 1 || out.Diffs[0].Kind != Insert {
		t.Fatalf("expected one unmatched-row emission for left join, got %+v", out.Diffs)
	}
}

func TestInnerJoinRemoveEmitsMatchingRemoves(t *testing.T) {
	n := &joinNode{id: 1, strategy: JoinInner, leftKey: joinRowKey, rightKey: joinRowKey, leftNodeID: 10, rightNodeID: 20}
	_, cmd := newTestCommand(t)

	if _, err := n.ApplyFrom(cmd, 10, Change{Diffs: []Diff{{Kind: Insert, Post: joinRow("k1", "left-a")}}}); err != nil {
		t.Fatalf("left insert: %v", err)
	}
	if _, err := n.ApplyFrom(cmd, 20, Change{Diffs: []Diff{{Kind: Insert, Post: joinRow("k1", "right-a")}}}); err != nil {
		t.Fatalf("right insert: %v", err)
	}

	out, err := n.ApplyFrom(cmd, 10, Change{Diffs: []Diff{{Kind: Remove, Pre: joinRow("k1", "left-a")}}})
	if err != nil {
		t.Fatalf("left remove: %v", err)
	}
	if len(out.Diffs) != 1 || out.Diffs[0].Kind != Remove {
		t.Fatalf("expected matching remove, got %+v", out.Diffs)
	}
}
