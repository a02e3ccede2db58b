package flow

import (
	"fmt"

	"github.com/reifydb/reifydb/internal/catalog"
	"github.com/reifydb/reifydb/internal/reifyerr"
	"github.com/reifydb/reifydb/internal/txn"
)

// Node is one operator in a compiled flow graph (spec.md §4.K "each
// physical node exposes ..."). Apply is called for nodes with exactly one
// upstream; nodes with more than one (Join) additionally implement
// SidedNode and Apply returns an error if ever called directly.
type Node interface {
	ID() uint64
	Kind() catalog.FlowNodeKind
	Apply(cmd *txn.Command, in Change) (Change, error)
}

// SidedNode is a Node whose behavior depends on which upstream a Change
// arrived from (spec.md §4.J "Join (inner)": "per-side hash index").
type SidedNode interface {
	Node
	ApplyFrom(cmd *txn.Command, fromNodeID uint64, in Change) (Change, error)
}

func newNode(def catalog.FlowNodeDef, b *Bindings) (Node, error) {
	switch def.Kind {
	case catalog.FlowNodeSource:
		p, err := unmarshalParams[SourceParams](def.Params)
		if err != nil {
			return nil, fmt.Errorf("flow: source node %d params: %w", def.ID, err)
		}
		return &sourceNode{id: def.ID, sourceID: p.SourceID}, nil

	case catalog.FlowNodeFilter:
		p, err := unmarshalParams[FilterParams](def.Params)
		if err != nil {
			return nil, fmt.Errorf("flow: filter node %d params: %w", def.ID, err)
		}
		pred, ok := b.Predicates[p.Predicate]
		if !ok {
			return nil, reifyerr.Internal(fmt.Sprintf("flow: unbound predicate %q for node %d", p.Predicate, def.ID))
		}
		return &filterNode{id: def.ID, predicate: pred}, nil

	case catalog.FlowNodeMap, catalog.FlowNodePatch, catalog.FlowNodeExtend:
		p, err := unmarshalParams[ProjectParams](def.Params)
		if err != nil {
			return nil, fmt.Errorf("flow: project node %d params: %w", def.ID, err)
		}
		proj, ok := b.Projects[p.Project]
		if !ok {
			return nil, reifyerr.Internal(fmt.Sprintf("flow: unbound project %q for node %d", p.Project, def.ID))
		}
		return &projectNode{id: def.ID, kind: def.Kind, project: proj}, nil

	case catalog.FlowNodeJoin:
		p, err := unmarshalParams[JoinParams](def.Params)
		if err != nil {
			return nil, fmt.Errorf("flow: join node %d params: %w", def.ID, err)
		}
		leftKey, ok := b.KeyFuncs[p.LeftKey]
		if !ok {
			return nil, reifyerr.Internal(fmt.Sprintf("flow: unbound key func %q for node %d", p.LeftKey, def.ID))
		}
		rightKey, ok := b.KeyFuncs[p.RightKey]
		if !ok {
			return nil, reifyerr.Internal(fmt.Sprintf("flow: unbound key func %q for node %d", p.RightKey, def.ID))
		}
		return &joinNode{id: def.ID, strategy: p.Strategy, leftKey: leftKey, rightKey: rightKey}, nil

	case catalog.FlowNodeAggregate:
		p, err := unmarshalParams[AggregateParams](def.Params)
		if err != nil {
			return nil, fmt.Errorf("flow: aggregate node %d params: %w", def.ID, err)
		}
		groupKey, ok := b.KeyFuncs[p.GroupKey]
		if !ok {
			return nil, reifyerr.Internal(fmt.Sprintf("flow: unbound key func %q for node %d", p.GroupKey, def.ID))
		}
		acc, ok := b.Accumulators[p.Accumulator]
		if !ok {
			return nil, reifyerr.Internal(fmt.Sprintf("flow: unbound accumulator %q for node %d", p.Accumulator, def.ID))
		}
		return &aggregateNode{id: def.ID, groupKey: groupKey, accumulator: acc}, nil

	case catalog.FlowNodeDistinct:
		p, err := unmarshalParams[DistinctParams](def.Params)
		if err != nil {
			return nil, fmt.Errorf("flow: distinct node %d params: %w", def.ID, err)
		}
		key, ok := b.KeyFuncs[p.KeyFunc]
		if !ok {
			return nil, reifyerr.Internal(fmt.Sprintf("flow: unbound key func %q for node %d", p.KeyFunc, def.ID))
		}
		return &distinctNode{id: def.ID, key: key}, nil

	case catalog.FlowNodeTake:
		p, err := unmarshalParams[TakeParams](def.Params)
		if err != nil {
			return nil, fmt.Errorf("flow: take node %d params: %w", def.ID, err)
		}
		return &takeNode{id: def.ID, limit: p.N}, nil

	case catalog.FlowNodeWindow:
		p, err := unmarshalParams[WindowParams](def.Params)
		if err != nil {
			return nil, fmt.Errorf("flow: window node %d params: %w", def.ID, err)
		}
		return &windowNode{id: def.ID, spec: p}, nil

	case catalog.FlowNodeSink:
		p, err := unmarshalParams[SinkParams](def.Params)
		if err != nil {
			return nil, fmt.Errorf("flow: sink node %d params: %w", def.ID, err)
		}
		rowKey, ok := b.RowKeys[p.RowKey]
		if !ok {
			return nil, reifyerr.Internal(fmt.Sprintf("flow: unbound row key %q for node %d", p.RowKey, def.ID))
		}
		return &sinkNode{id: def.ID, targetTableID: p.TargetTableID, rowKey: rowKey}, nil

	default:
		return nil, reifyerr.Internal(fmt.Sprintf("flow: unknown node kind %s for node %d", def.Kind, def.ID))
	}
}
