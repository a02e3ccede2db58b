package flow

import (
	"testing"

	"github.com/reifydb/reifydb/internal/row"
)

func TestTumblingCountWindowClosesAtCount(t *testing.T) {
	n := &windowNode{id: 1, spec: WindowParams{Kind: WindowTumblingCount, Count: 2}}
	_, cmd := newTestCommand(t)

	out, err := n.Apply(cmd, Change{Diffs: []Diff{{Kind: Insert, Post: row.Values("a")}}})
	if err != nil {
		t.Fatalf("apply 1: %v", err)
	}
	if len(out.Diffs) != 0 {
		t.Fatalf("expected no emission before window fills, got %+v", out.Diffs)
	}

	out, err = n.Apply(cmd, Change{Diffs: []Diff{{Kind: Insert, Post: row.Values("b")}}})
	if err != nil {
		t.Fatalf("apply 2: %v", err)
	}
	if len(out.Diffs) != 2 {
		t.Fatalf("expected window to close and emit 2 rows, got %+v", out.Diffs)
	}
}

func TestCountRetainedWindowKeepsLastN(t *testing.T) {
	n := &windowNode{id: 1, spec: WindowParams{Kind: WindowCountRetained, Count: 2}}
	_, cmd := newTestCommand(t)

	for _, v := range []string{"a", "b", "c"} {
		out, err := n.Apply(cmd, Change{Diffs: []Diff{{Kind: Insert, Post: row.Values(v)}}})
		if err != nil {
			t.Fatalf("apply %q: %v", v, err)
		}
		if len(out.Diffs) == 0 {
			t.Fatalf("expected retained-window emission for %q", v)
		}
	}

	out, err := n.Apply(cmd, Change{Diffs: nil})
	if err != nil {
		t.Fatalf("apply idle: %v", err)
	}
	if len(out.Diffs) != 2 || string(out.Diffs[0].Post) != "b" || string(out.Diffs[1].Post) != "c" {
		t.Fatalf("expected retained window [b c], got %+v", out.Diffs)
	}
}
