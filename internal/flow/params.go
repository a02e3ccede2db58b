package flow

import "encoding/json"

// Param structs are the JSON shape of FlowNodeDef.Params for each
// FlowNodeKind (catalog leaves Params opaque; internal/flow is the one
// place that interprets it, spec.md §4.I "kind-specific parameters").

type SourceParams struct {
	SourceID uint64 `json:"source_id"`
}

type FilterParams struct {
	Predicate string `json:"predicate"`
}

type ProjectParams struct {
	Project string `json:"project"`
}

type JoinStrategy string

const (
	JoinInner JoinStrategy = "inner"
	JoinLeft  JoinStrategy = "left"
)

type JoinParams struct {
	Strategy JoinStrategy `json:"strategy"`
	LeftKey  string       `json:"left_key"`
	RightKey string       `json:"right_key"`
}

type AggregateParams struct {
	GroupKey    string `json:"group_key"`
	Accumulator string `json:"accumulator"`
}

type DistinctParams struct {
	KeyFunc string `json:"key_func"`
}

type TakeParams struct {
	N int `json:"n"`
}

type WindowKind string

const (
	WindowTumblingTime  WindowKind = "tumbling_time"
	WindowTumblingCount WindowKind = "tumbling_count"
	WindowSliding       WindowKind = "sliding"
	WindowCountRetained WindowKind = "counting_retained"
)

type WindowParams struct {
	Kind        WindowKind `json:"kind"`
	SizeMillis  int64      `json:"size_millis,omitempty"`
	SlideMillis int64      `json:"slide_millis,omitempty"`
	Count       int        `json:"count,omitempty"`
}

type SinkParams struct {
	TargetTableID uint64 `json:"target_table_id"`
	RowKey        string `json:"row_key"`
}

func unmarshalParams[T any](raw []byte) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	err := json.Unmarshal(raw, &v)
	return v, err
}
