package flow

import (
	"bytes"
	"testing"

	"github.com/reifydb/reifydb/internal/catalog"
	"github.com/reifydb/reifydb/internal/row"
)

func upper(r row.Values) (row.Values, error) {
	return row.Values(bytes.ToUpper(r)), nil
}

func TestProjectAppliesToPreAndPost(t *testing.T) {
	n := &projectNode{id: 1, kind: catalog.FlowNodeMap, project: upper}
	_, cmd := newTestCommand(t)

	out, err := n.Apply(cmd, Change{Diffs: []Diff{{Kind: Update, Pre: row.Values("a"), Post: row.Values("b")}}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if string(out.Diffs[0].Pre) != "A" || string(out.Diffs[0].Post) != "B" {
		t.Fatalf("expected both pre and post projected, got %+v", out.Diffs[0])
	}
}
