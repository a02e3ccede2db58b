package expr

import "github.com/reifydb/reifydb/internal/reifyerr"

// IfBranch pairs a condition with the expression to evaluate where that
// condition holds.
type IfBranch struct {
	Condition Expr
	Then      Expr
}

// If evaluates an IF/ELSE IF/ELSE chain column-wise (spec.md §4.K "IF/ELSE
// IF/ELSE evaluates a condition column row by row, selecting from branches
// with output width equal to the first branch's width"). Branches are
// tried in order; Else (if non-nil) covers rows no branch's condition
// matched.
type If struct {
	Name     string
	Branches []IfBranch
	Else     Expr
}

func (x If) Eval(b *Batch) (Column, error) {
	if len(x.Branches) == 0 {
		return Column{}, reifyerr.Internal("expr: If requires at least one branch")
	}

	conds := make([]Column, len(x.Branches))
	thens := make([]Column, len(x.Branches))
	for i, br := range x.Branches {
		c, err := br.Condition.Eval(b)
		if err != nil {
			return Column{}, err
		}
		t, err := br.Then.Eval(b)
		if err != nil {
			return Column{}, err
		}
		conds[i] = c
		thens[i] = t
	}

	width := thens[0].Len()
	resultType := thens[0].Type

	var elseCol Column
	hasElse := x.Else != nil
	if hasElse {
		c, err := x.Else.Eval(b)
		if err != nil {
			return Column{}, err
		}
		elseCol = c
	}

	out := make([]any, width)
	for row := 0; row < width; row++ {
		picked := false
		for i, cond := range conds {
			cv, ok := cond.Values[row].(bool)
			if !ok || !cv {
				continue
			}
			out[row] = thens[i].Values[row]
			picked = true
			break
		}
		if !picked && hasElse {
			out[row] = elseCol.Values[row]
		}
	}
	return Column{Name: x.Name, Type: resultType, Values: out}, nil
}
