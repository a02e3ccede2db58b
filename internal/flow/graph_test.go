package flow

import (
	"encoding/json"
	"testing"

	"github.com/reifydb/reifydb/internal/catalog"
	"github.com/reifydb/reifydb/internal/kv"
	"github.com/reifydb/reifydb/internal/row"
)

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestCompileGraphRejectsCycle(t *testing.T) {
	flowDef := &catalog.FlowDef{ID: 1, Name: "f"}
	nodes := []catalog.FlowNodeDef{
		{ID: 1, FlowID: 1, Kind: catalog.FlowNodeSource, Params: mustJSON(t, SourceParams{SourceID: 1})},
		{ID: 2, FlowID: 1, Kind: catalog.FlowNodeFilter, Params: mustJSON(t, FilterParams{Predicate: "p"})},
	}
	edges := []catalog.FlowEdgeDef{
		{ID: 1, FlowID: 1, From: 1, To: 2},
		{ID: 2, FlowID: 1, From: 2, To: 1},
	}
	b := &Bindings{Predicates: map[string]Predicate{"p": isPositive}}

	if _, err := CompileGraph(flowDef, nodes, edges, b); err == nil {
		t.Fatalf("expected cycle to be rejected")
	}
}

func TestGraphRunsSourceFilterSinkPipeline(t *testing.T) {
	flowDef := &catalog.FlowDef{ID: 1, Name: "f"}
	nodes := []catalog.FlowNodeDef{
		{ID: 1, FlowID: 1, Kind: catalog.FlowNodeSource, Params: mustJSON(t, SourceParams{SourceID: 100})},
		{ID: 2, FlowID: 1, Kind: catalog.FlowNodeFilter, Params: mustJSON(t, FilterParams{Predicate: "positive"})},
		{ID: 3, FlowID: 1, Kind: catalog.FlowNodeSink, Params: mustJSON(t, SinkParams{TargetTableID: 200, RowKey: "firstByte"})},
	}
	edges := []catalog.FlowEdgeDef{
		{ID: 1, FlowID: 1, From: 1, To: 2},
		{ID: 2, FlowID: 1, From: 2, To: 3},
	}
	b := &Bindings{
		Predicates: map[string]Predicate{"positive": isPositive},
		RowKeys:    map[string]RowKeyFunc{"firstByte": firstByteKey},
	}

	g, err := CompileGraph(flowDef, nodes, edges, b)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	_, cmd := newTestCommand(t)
	in := Change{Origin: ExternalOrigin(100), Diffs: []Diff{{Kind: Insert, Post: row.Values("x-ok")}}}
	if err := g.Run(cmd, 100, in); err != nil {
		t.Fatalf("run: %v", err)
	}

	v, found, err := cmd.Get(kv.SourceTableID(200), []byte("x"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found || string(v) != "x-ok" {
		t.Fatalf("expected row to reach sink, got found=%v value=%q", found, v)
	}
}

func TestGraphRunIsNoOpForUnknownSource(t *testing.T) {
	flowDef := &catalog.FlowDef{ID: 1, Name: "f"}
	nodes := []catalog.FlowNodeDef{
		{ID: 1, FlowID: 1, Kind: catalog.FlowNodeSource, Params: mustJSON(t, SourceParams{SourceID: 100})},
	}
	b := &Bindings{}
	g, err := CompileGraph(flowDef, nodes, nil, b)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	_, cmd := newTestCommand(t)
	if err := g.Run(cmd, 999, Change{}); err != nil {
		t.Fatalf("expected no-op run, got %v", err)
	}
}
