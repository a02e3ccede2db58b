package expr

import (
	"math/big"
	"testing"

	"github.com/reifydb/reifydb/internal/row"
)

func TestPromoteSameSignedness(t *testing.T) {
	got, err := Promote(row.Int1, row.Int4)
	if err != nil {
		t.Fatalf("Promote: %v", err)
	}
	if got != row.Int4 {
		t.Fatalf("got %v, want Int4", got)
	}
}

func TestPromoteFloatWins(t *testing.T) {
	got, err := Promote(row.Int8, row.Float4)
	if err != nil {
		t.Fatalf("Promote: %v", err)
	}
	if got != row.Float4 {
		t.Fatalf("got %v, want Float4", got)
	}
}

func TestPromoteMixedSignedUnsigned(t *testing.T) {
	got, err := Promote(row.Uint4, row.Int4)
	if err != nil {
		t.Fatalf("Promote: %v", err)
	}
	if got != row.Int8 {
		t.Fatalf("got %v, want Int8 (smallest signed type containing Uint4's range)", got)
	}
}

func TestArithIntSaturateError(t *testing.T) {
	max := big.NewInt(127) // Int1 max
	one := big.NewInt(1)
	_, err := arithInt(opAdd, row.Int1, max, one, SaturateError, "a+b")
	if err == nil {
		t.Fatalf("expected overflow error")
	}
}

func TestArithIntSaturateUndefined(t *testing.T) {
	max := big.NewInt(127)
	one := big.NewInt(1)
	v, err := arithInt(opAdd, row.Int1, max, one, SaturateUndefined, "a+b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != nil {
		t.Fatalf("expected Undefined on overflow, got %v", v)
	}
}

func TestArithIntWithinBounds(t *testing.T) {
	v, err := arithInt(opMul, row.Int4, big.NewInt(6), big.NewInt(7), SaturateError, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.(int64) != 42 {
		t.Fatalf("got %v, want 42", v)
	}
}

func TestArithDivByZero(t *testing.T) {
	if _, err := arithInt(opDiv, row.Int4, big.NewInt(1), big.NewInt(0), SaturateError, "1/0"); err == nil {
		t.Fatalf("expected error dividing by zero")
	}
}
