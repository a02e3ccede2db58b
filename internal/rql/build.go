// Package rql stands in for the external query planner named in spec.md
// §6 ("Parser / Planner: produces a PhysicalPlan tree of nodes the
// executor knows how to build"). This repository has no RQL surface (out
// of scope per spec.md §1), so tests that want to exercise the engine
// end-to-end need some way to build an internal/exec.Node tree without
// hand-writing nested struct literals at every call site. These builders
// do exactly that, from plain Go values — they carry no parsing, planning,
// or optimization logic of their own.
package rql

import (
	"github.com/reifydb/reifydb/internal/exec"
	"github.com/reifydb/reifydb/internal/expr"
	"github.com/reifydb/reifydb/internal/keycode"
	"github.com/reifydb/reifydb/internal/kv"
	"github.com/reifydb/reifydb/internal/row"
	"github.com/reifydb/reifydb/internal/txn"
)

// Scan builds a full-range scan of table, decoded through layout.
func Scan(table kv.TableID, layout *row.NamedLayout) *exec.Scan {
	return &exec.Scan{Table: table, Layout: layout, Start: nil, End: []byte{0xFF}}
}

// InsertRow encodes values under layout and writes them into tableID,
// keyed by a spec.md-shaped TableRow key (the source table id plus the
// caller-chosen logical row key, usually the encoded primary key) —
// the same key family internal/exec.Scan reads back, so a row written
// through InsertRow is immediately visible to a Scan over the same table.
func InsertRow(cmd *txn.Command, tableID uint64, rowKey []byte, layout *row.Layout, values []any) error {
	enc, err := row.Encode(layout, values)
	if err != nil {
		return err
	}
	cmd.Set(kv.SourceTableID(tableID), keycode.EncodeTableRow(tableID, rowKey), enc)
	return nil
}

// Filter wraps child with a row predicate.
func Filter(child exec.Node, predicate expr.Expr) *exec.Filter {
	return &exec.Filter{Child: child, Predicate: predicate}
}

// Project replaces child's columns with the given named outputs, in order.
func Project(child exec.Node, outputs ...exec.Output) *exec.Project {
	return &exec.Project{Child: child, Outputs: outputs}
}

// Out names one projected column.
func Out(name string, t row.Type, e expr.Expr) exec.Output {
	return exec.Output{Name: name, Type: t, Expr: e}
}

// Take bounds child to at most n rows.
func Take(child exec.Node, n int) *exec.Take {
	return &exec.Take{Child: child, N: n}
}

// Sort orders child's rows by the given keys, applied in order.
func Sort(child exec.Node, keys ...exec.SortKey) *exec.Sort {
	return &exec.Sort{Child: child, Keys: keys}
}

// Asc builds an ascending sort key.
func Asc(name string) exec.SortKey { return exec.SortKey{Name: name} }

// Desc builds a descending sort key.
func Desc(name string) exec.SortKey { return exec.SortKey{Name: name, Desc: true} }

// Join builds a hash join of left and right on the given key expressions
// (each must evaluate to a Utf8 column; use Cast to coerce a typed key).
func Join(left, right exec.Node, strategy exec.JoinStrategy, leftKey, rightKey expr.Expr) *exec.Join {
	return &exec.Join{Left: left, Right: right, Strategy: strategy, LeftKey: leftKey, RightKey: rightKey}
}

// Aggregate groups child's rows by groupBy and evaluates each output.
func Aggregate(child exec.Node, groupBy []expr.Expr, outputs ...exec.AggregateExpr) *exec.Aggregate {
	return &exec.Aggregate{Child: child, GroupBy: groupBy, Outputs: outputs}
}

// Col references a named input column.
func Col(name string) expr.Expr { return expr.ColumnRef{Name: name} }

// Lit builds a broadcast literal of the given type and value.
func Lit(t row.Type, v any) expr.Expr { return expr.Literal{Type: t, Value: v} }

// Cast coerces inner to target, raising a cast error on failure.
func Cast(target row.Type, inner expr.Expr) expr.Expr {
	return expr.Cast{Target: target, Inner: inner, Saturation: expr.SaturateError}
}

// CastUndefined coerces inner to target, producing Undefined on failure
// instead of an error (spec.md S6's "saturation policy Undefined").
func CastUndefined(target row.Type, inner expr.Expr) expr.Expr {
	return expr.Cast{Target: target, Inner: inner, Saturation: expr.SaturateUndefined}
}

func binary(op expr.BinaryOp, left, right expr.Expr) expr.Expr {
	return expr.Binary{Op: op, Left: left, Right: right}
}

// Eq, Ne, Lt, Le, Gt, Ge build comparison expressions.
func Eq(left, right expr.Expr) expr.Expr { return binary(expr.OpEq, left, right) }
func Ne(left, right expr.Expr) expr.Expr { return binary(expr.OpNe, left, right) }
func Lt(left, right expr.Expr) expr.Expr { return binary(expr.OpLt, left, right) }
func Le(left, right expr.Expr) expr.Expr { return binary(expr.OpLe, left, right) }
func Gt(left, right expr.Expr) expr.Expr { return binary(expr.OpGt, left, right) }
func Ge(left, right expr.Expr) expr.Expr { return binary(expr.OpGe, left, right) }

// And, Or build three-valued boolean connectives.
func And(left, right expr.Expr) expr.Expr { return binary(expr.OpAnd, left, right) }
func Or(left, right expr.Expr) expr.Expr  { return binary(expr.OpOr, left, right) }

// Add, Sub, Mul, Div, Mod build arithmetic expressions, saturating on
// overflow by default (spec.md §4.K's default saturation policy).
func Add(left, right expr.Expr) expr.Expr { return binary(expr.OpAdd, left, right) }
func Sub(left, right expr.Expr) expr.Expr { return binary(expr.OpSub, left, right) }
func Mul(left, right expr.Expr) expr.Expr { return binary(expr.OpMul, left, right) }
func Div(left, right expr.Expr) expr.Expr { return binary(expr.OpDiv, left, right) }
func Mod(left, right expr.Expr) expr.Expr { return binary(expr.OpMod, left, right) }
