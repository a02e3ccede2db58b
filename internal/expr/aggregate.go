package expr

import (
	"encoding/binary"
	"math"

	"github.com/reifydb/reifydb/internal/reifyerr"
	"github.com/reifydb/reifydb/internal/row"
)

// Accumulator implementations in this file satisfy internal/flow.Accumulator
// by structural typing (Zero/Add/Remove/Result with matching signatures) so
// that a compiler stage can bind them into flow.Bindings.Accumulators by
// name without internal/flow importing internal/expr or vice versa — the
// same decoupling flow.Bindings already uses for Predicate/Project/KeyFunc.

// SumAccumulator maintains a running sum of one input field, grounded on
// the teacher's SUM aggregate (internal/engine exec.go "SUM", "AVG" case).
// The running sum is kept as a float64 regardless of the input field's
// declared numeric type: this loses precision for very large Int16/Uint16
// sums, a scoped simplification documented in DESIGN.md.
type SumAccumulator struct {
	Layout     *row.Layout
	Field      int
	OutputType row.Type
}

func (a SumAccumulator) Zero() []byte {
	return encodeFloatState(0)
}

func (a SumAccumulator) Add(state []byte, r row.Values) ([]byte, error) {
	f, ok, err := a.fieldValue(r)
	if err != nil {
		return nil, err
	}
	if !ok {
		return state, nil
	}
	cur := decodeFloatState(state)
	return encodeFloatState(cur + f), nil
}

func (a SumAccumulator) Remove(state []byte, r row.Values) ([]byte, error) {
	f, ok, err := a.fieldValue(r)
	if err != nil {
		return nil, err
	}
	if !ok {
		return state, nil
	}
	cur := decodeFloatState(state)
	return encodeFloatState(cur - f), nil
}

func (a SumAccumulator) Result(state []byte) (row.Values, error) {
	return encodeScalar(a.OutputType, floatToOutput(a.OutputType, decodeFloatState(state)))
}

func (a SumAccumulator) fieldValue(r row.Values) (float64, bool, error) {
	vals, err := row.Decode(a.Layout, r)
	if err != nil {
		return 0, false, reifyerr.Storage(err)
	}
	v := vals[a.Field]
	if v == nil {
		return 0, false, nil
	}
	f, err := asFloat(v)
	if err != nil {
		return 0, false, err
	}
	return f, true, nil
}

// CountAccumulator counts rows seen, ignoring field values (COUNT(*)).
type CountAccumulator struct{}

func (CountAccumulator) Zero() []byte { return encodeCountState(0) }

func (CountAccumulator) Add(state []byte, _ row.Values) ([]byte, error) {
	return encodeCountState(decodeCountState(state) + 1), nil
}

func (CountAccumulator) Remove(state []byte, _ row.Values) ([]byte, error) {
	n := decodeCountState(state)
	if n > 0 {
		n--
	}
	return encodeCountState(n), nil
}

func (CountAccumulator) Result(state []byte) (row.Values, error) {
	return encodeScalar(row.Int8, int64(decodeCountState(state)))
}

// AvgAccumulator maintains a running sum and count, dividing on Result.
type AvgAccumulator struct {
	Layout *row.Layout
	Field  int
}

func (a AvgAccumulator) Zero() []byte {
	return encodeAvgState(0, 0)
}

func (a AvgAccumulator) Add(state []byte, r row.Values) ([]byte, error) {
	vals, err := row.Decode(a.Layout, r)
	if err != nil {
		return nil, reifyerr.Storage(err)
	}
	v := vals[a.Field]
	if v == nil {
		return state, nil
	}
	f, err := asFloat(v)
	if err != nil {
		return nil, err
	}
	sum, count := decodeAvgState(state)
	return encodeAvgState(sum+f, count+1), nil
}

func (a AvgAccumulator) Remove(state []byte, r row.Values) ([]byte, error) {
	vals, err := row.Decode(a.Layout, r)
	if err != nil {
		return nil, reifyerr.Storage(err)
	}
	v := vals[a.Field]
	if v == nil {
		return state, nil
	}
	f, err := asFloat(v)
	if err != nil {
		return nil, err
	}
	sum, count := decodeAvgState(state)
	if count > 0 {
		count--
		sum -= f
	}
	return encodeAvgState(sum, count), nil
}

func (a AvgAccumulator) Result(state []byte) (row.Values, error) {
	sum, count := decodeAvgState(state)
	if count == 0 {
		return encodeScalar(row.Float8, nil)
	}
	return encodeScalar(row.Float8, sum/float64(count))
}

// MinMaxAccumulator tracks a running extremum. Remove does
// not recompute the extremum from the surviving multiset (that would need
// an auxiliary ordered structure this evaluator doesn't maintain): if the
// removed row held the current extremum, the accumulator keeps reporting
// it until the next Add replaces it. This mirrors the same conservative
// limitation common engines carry for decremental MIN/MAX.
type MinMaxAccumulator struct {
	Layout     *row.Layout
	Field      int
	OutputType row.Type
	Max        bool
}

func (a MinMaxAccumulator) Zero() []byte { return nil }

func (a MinMaxAccumulator) Add(state []byte, r row.Values) ([]byte, error) {
	vals, err := row.Decode(a.Layout, r)
	if err != nil {
		return nil, reifyerr.Storage(err)
	}
	v := vals[a.Field]
	if v == nil {
		return state, nil
	}
	if state == nil {
		return encodeScalar(a.OutputType, v)
	}
	cur, err := row.Decode(singleLayout(a.OutputType), state)
	if err != nil {
		return nil, reifyerr.Storage(err)
	}
	cmp, err := compareValues(a.Layout.Type(a.Field), a.OutputType, v, cur[0])
	if err != nil {
		return nil, err
	}
	if (a.Max && cmp > 0) || (!a.Max && cmp < 0) {
		return encodeScalar(a.OutputType, v)
	}
	return state, nil
}

func (a MinMaxAccumulator) Remove(state []byte, _ row.Values) ([]byte, error) {
	return state, nil
}

func (a MinMaxAccumulator) Result(state []byte) (row.Values, error) {
	if state == nil {
		return encodeScalar(a.OutputType, nil)
	}
	return row.Values(state), nil
}

func singleLayout(t row.Type) *row.Layout {
	return row.NewLayout([]row.Type{t})
}

func encodeScalar(t row.Type, v any) (row.Values, error) {
	return row.Encode(singleLayout(t), []any{v})
}

func floatToOutput(t row.Type, f float64) any {
	if t == row.Float4 || t == row.Float8 {
		return f
	}
	return int64(f)
}

func encodeFloatState(f float64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, math.Float64bits(f))
	return buf
}

func decodeFloatState(state []byte) float64 {
	if len(state) != 8 {
		return 0
	}
	return math.Float64frombits(binary.BigEndian.Uint64(state))
}

func encodeCountState(n uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	return buf
}

func decodeCountState(state []byte) uint64 {
	if len(state) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(state)
}

func encodeAvgState(sum float64, count uint64) []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[:8], math.Float64bits(sum))
	binary.BigEndian.PutUint64(buf[8:], count)
	return buf
}

func decodeAvgState(state []byte) (float64, uint64) {
	if len(state) != 16 {
		return 0, 0
	}
	sum := math.Float64frombits(binary.BigEndian.Uint64(state[:8]))
	count := binary.BigEndian.Uint64(state[8:])
	return sum, count
}
