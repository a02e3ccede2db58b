package expr

import (
	"testing"

	"github.com/reifydb/reifydb/internal/row"
)

func encodeRow(t *testing.T, l *row.Layout, vals ...any) row.Values {
	t.Helper()
	v, err := row.Encode(l, vals)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return v
}

func TestSumAccumulator(t *testing.T) {
	l := row.NewLayout([]row.Type{row.Int4})
	a := SumAccumulator{Layout: l, Field: 0, OutputType: row.Int8}

	state := a.Zero()
	state, err := a.Add(state, encodeRow(t, l, int64(3)))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	state, err = a.Add(state, encodeRow(t, l, int64(4)))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	result, err := a.Result(state)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	vals, err := row.Decode(row.NewLayout([]row.Type{row.Int8}), result)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if vals[0].(int64) != 7 {
		t.Fatalf("got %v, want 7", vals[0])
	}

	state, err = a.Remove(state, encodeRow(t, l, int64(3)))
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	result, err = a.Result(state)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	vals, _ = row.Decode(row.NewLayout([]row.Type{row.Int8}), result)
	if vals[0].(int64) != 4 {
		t.Fatalf("got %v, want 4 after remove", vals[0])
	}
}

func TestCountAccumulator(t *testing.T) {
	l := row.NewLayout([]row.Type{row.Int4})
	a := CountAccumulator{}
	state := a.Zero()
	r := encodeRow(t, l, int64(1))
	state, _ = a.Add(state, r)
	state, _ = a.Add(state, r)
	state, _ = a.Remove(state, r)
	result, err := a.Result(state)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	vals, _ := row.Decode(row.NewLayout([]row.Type{row.Int8}), result)
	if vals[0].(int64) != 1 {
		t.Fatalf("got %v, want 1", vals[0])
	}
}

func TestAvgAccumulator(t *testing.T) {
	l := row.NewLayout([]row.Type{row.Int4})
	a := AvgAccumulator{Layout: l, Field: 0}
	state := a.Zero()
	state, _ = a.Add(state, encodeRow(t, l, int64(2)))
	state, _ = a.Add(state, encodeRow(t, l, int64(4)))
	result, err := a.Result(state)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	vals, _ := row.Decode(row.NewLayout([]row.Type{row.Float8}), result)
	if vals[0].(float64) != 3.0 {
		t.Fatalf("got %v, want 3.0", vals[0])
	}
}

func TestMinMaxAccumulator(t *testing.T) {
	l := row.NewLayout([]row.Type{row.Int4})
	maxAcc := MinMaxAccumulator{Layout: l, Field: 0, OutputType: row.Int4, Max: true}
	state := maxAcc.Zero()
	for _, v := range []int64{5, 9, 2} {
		var err error
		state, err = maxAcc.Add(state, encodeRow(t, l, v))
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	result, err := maxAcc.Result(state)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	vals, _ := row.Decode(l, result)
	if vals[0].(int64) != 9 {
		t.Fatalf("got %v, want 9", vals[0])
	}
}
