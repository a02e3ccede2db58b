package flow

import (
	"fmt"
	"sort"

	"github.com/reifydb/reifydb/internal/catalog"
	"github.com/reifydb/reifydb/internal/kv"
	"github.com/reifydb/reifydb/internal/reifyerr"
	"github.com/reifydb/reifydb/internal/txn"
)

// Graph is a compiled flow: one Node per FlowNodeDef plus the edges between
// them, ready to drive CDC-sourced changes from a source table through to
// its sink(s) (spec.md §4.I).
type Graph struct {
	flowID   uint64
	nodes    map[uint64]Node
	children map[uint64][]uint64 // node id -> sorted child node ids (by edge id)
	bySource map[uint64]uint64   // source table id -> source node id
}

// CompileGraph builds a Graph from a FlowDef's persisted nodes and edges,
// rejecting a graph that isn't a DAG (spec.md §3 "Flow graph — directed
// acyclic graph of FlowNodes").
func CompileGraph(flowDef *catalog.FlowDef, nodeDefs []catalog.FlowNodeDef, edgeDefs []catalog.FlowEdgeDef, b *Bindings) (*Graph, error) {
	g := &Graph{
		flowID:   flowDef.ID,
		nodes:    make(map[uint64]Node, len(nodeDefs)),
		children: make(map[uint64][]uint64),
		bySource: make(map[uint64]uint64),
	}

	for _, def := range nodeDefs {
		n, err := newNode(def, b)
		if err != nil {
			return nil, err
		}
		g.nodes[def.ID] = n
		if def.Kind == catalog.FlowNodeSource {
			sp, err := unmarshalParams[SourceParams](def.Params)
			if err != nil {
				return nil, fmt.Errorf("flow: source node %d params: %w", def.ID, err)
			}
			g.bySource[sp.SourceID] = def.ID
		}
	}

	sortedEdges := append([]catalog.FlowEdgeDef(nil), edgeDefs...)
	sort.Slice(sortedEdges, func(i, j int) bool { return sortedEdges[i].ID < sortedEdges[j].ID })

	indegree := make(map[uint64]int, len(g.nodes))
	parents := make(map[uint64][]uint64, len(g.nodes))
	for id := range g.nodes {
		indegree[id] = 0
	}
	for _, e := range sortedEdges {
		if _, ok := g.nodes[e.From]; !ok {
			return nil, reifyerr.Internal(fmt.Sprintf("flow: edge %d references unknown node %d", e.ID, e.From))
		}
		if _, ok := g.nodes[e.To]; !ok {
			return nil, reifyerr.Internal(fmt.Sprintf("flow: edge %d references unknown node %d", e.ID, e.To))
		}
		g.children[e.From] = append(g.children[e.From], e.To)
		parents[e.To] = append(parents[e.To], e.From) // sortedEdges is in edge-id order
		indegree[e.To]++
	}

	if err := assertAcyclic(g.nodes, g.children, indegree); err != nil {
		return nil, err
	}

	for id, n := range g.nodes {
		jn, ok := n.(*joinNode)
		if !ok {
			continue
		}
		ps := parents[id]
		if len(ps) != 2 {
			return nil, reifyerr.Internal(fmt.Sprintf("flow: join node %d must have exactly 2 upstreams, got %d", id, len(ps)))
		}
		jn.leftNodeID, jn.rightNodeID = ps[0], ps[1]
	}

	return g, nil
}

// assertAcyclic runs Kahn's algorithm purely to detect a cycle; the
// resulting order isn't retained since Run already drives propagation
// correctly edge-by-edge (see Run's doc comment).
func assertAcyclic(nodes map[uint64]Node, children map[uint64][]uint64, indegree map[uint64]int) error {
	degree := make(map[uint64]int, len(indegree))
	for id, d := range indegree {
		degree[id] = d
	}
	var queue []uint64
	for id, d := range degree {
		if d == 0 {
			queue = append(queue, id)
		}
	}
	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, child := range children[id] {
			degree[child]--
			if degree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}
	if visited != len(nodes) {
		return reifyerr.Internal("flow: graph contains a cycle")
	}
	return nil
}

// Run drives one externally-sourced Change through the graph, starting at
// the Source node registered for sourceTableID (a no-op if no such node
// exists: not every table committed to has a flow reading it).
//
// Propagation is depth-first per edge rather than a single globally
// topologically-sorted batch: every multi-input operator this package
// implements (only Join) resolves its second input through SidedNode by
// the immediate parent's id, so a Change can be pushed along each outgoing
// edge independently the moment its producing node returns it, matching
// spec.md §4.I step 3 ("propagates along outgoing edges") without needing
// to buffer sibling branches until they reconverge.
func (g *Graph) Run(cmd *txn.Command, sourceTableID uint64, in Change) error {
	nodeID, ok := g.bySource[sourceTableID]
	if !ok {
		return nil
	}
	return g.visit(cmd, 0, nodeID, in)
}

func (g *Graph) visit(cmd *txn.Command, fromNodeID, nodeID uint64, in Change) error {
	node, ok := g.nodes[nodeID]
	if !ok {
		return reifyerr.Internal(fmt.Sprintf("flow: unknown node %d", nodeID))
	}

	var out Change
	var err error
	if sided, ok := node.(SidedNode); ok {
		out, err = sided.ApplyFrom(cmd, fromNodeID, in)
	} else {
		out, err = node.Apply(cmd, in)
	}
	if err != nil {
		return fmt.Errorf("flow: node %d (%s): %w", nodeID, node.Kind(), err)
	}
	if len(out.Diffs) == 0 {
		return nil
	}
	for _, childID := range g.children[nodeID] {
		if err := g.visit(cmd, nodeID, childID, out); err != nil {
			return err
		}
	}
	return nil
}

// operatorTable returns the per-node physical key space an operator's
// state lives in (spec.md §4.I "Operator state ... stored under keys
// (version, KeyKind::Operator, FlowNodeId, op-specific bytes)").
func operatorTable(nodeID uint64) kv.TableID { return kv.OperatorTableID(nodeID) }
