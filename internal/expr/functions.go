package expr

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/reifydb/reifydb/internal/reifyerr"
	"github.com/reifydb/reifydb/internal/row"
)

// ScalarFunction evaluates a named builtin row by row across already
// evaluated argument columns, producing one output column of the same
// width (spec.md §4.K "function calls dispatch to named scalar functions").
type ScalarFunction func(name string, args []Column, width int) (Column, error)

// Functions is the default scalar function registry, grounded on the
// teacher's FUNCTIONS dispatch table (UPPER/LOWER/CONCAT/LENGTH/SUBSTRING/
// TRIM/MD5/SHA256).
var Functions = map[string]ScalarFunction{
	"UPPER":     fnUnaryString(strings.ToUpper),
	"LOWER":     fnUnaryString(strings.ToLower),
	"TRIM":      fnUnaryString(strings.TrimSpace),
	"LENGTH":    fnLength,
	"CONCAT":    fnConcat,
	"SUBSTRING": fnSubstring,
	"MD5":       fnHash(md5.Sum),
	"SHA256":    fnSha256,
}

// Call evaluates a named scalar function over its evaluated arguments.
type Call struct {
	Name string
	Args []Expr
	Fn   ScalarFunction
}

func (c Call) Eval(b *Batch) (Column, error) {
	fn := c.Fn
	if fn == nil {
		var ok bool
		fn, ok = Functions[c.Name]
		if !ok {
			return Column{}, reifyerr.Schema("unknown function", c.Name)
		}
	}
	args := make([]Column, len(c.Args))
	for i, a := range c.Args {
		col, err := a.Eval(b)
		if err != nil {
			return Column{}, err
		}
		args[i] = col
	}
	return fn(c.Name, args, b.Width())
}

func fnUnaryString(f func(string) string) ScalarFunction {
	return func(name string, args []Column, width int) (Column, error) {
		if len(args) != 1 {
			return Column{}, reifyerr.Schema(name+" takes exactly one argument", name)
		}
		out := make([]any, width)
		for i, v := range args[0].Values {
			if v == nil {
				continue
			}
			s, ok := v.(string)
			if !ok {
				return Column{}, reifyerr.Cast(name+" requires a Utf8 argument", name, args[0].Type.String(), row.Utf8.String())
			}
			out[i] = f(s)
		}
		return Column{Name: name, Type: row.Utf8, Values: out}, nil
	}
}

func fnLength(name string, args []Column, width int) (Column, error) {
	if len(args) != 1 {
		return Column{}, reifyerr.Schema("LENGTH takes exactly one argument", name)
	}
	out := make([]any, width)
	for i, v := range args[0].Values {
		if v == nil {
			continue
		}
		switch x := v.(type) {
		case string:
			out[i] = int64(len(x))
		case []byte:
			out[i] = int64(len(x))
		default:
			return Column{}, reifyerr.Cast("LENGTH requires a Utf8 or Blob argument", name, args[0].Type.String(), row.Utf8.String())
		}
	}
	return Column{Name: name, Type: row.Int8, Values: out}, nil
}

func fnConcat(name string, args []Column, width int) (Column, error) {
	if len(args) == 0 {
		return Column{}, reifyerr.Schema("CONCAT requires at least one argument", name)
	}
	out := make([]any, width)
	for i := 0; i < width; i++ {
		var sb strings.Builder
		defined := false
		for _, c := range args {
			v := c.Values[i]
			if v == nil {
				continue
			}
			defined = true
			s, ok := v.(string)
			if !ok {
				return Column{}, reifyerr.Cast("CONCAT requires Utf8 arguments", name, c.Type.String(), row.Utf8.String())
			}
			sb.WriteString(s)
		}
		if defined {
			out[i] = sb.String()
		}
	}
	return Column{Name: name, Type: row.Utf8, Values: out}, nil
}

func fnSubstring(name string, args []Column, width int) (Column, error) {
	if len(args) != 3 {
		return Column{}, reifyerr.Schema("SUBSTRING takes exactly three arguments (string, start, length)", name)
	}
	out := make([]any, width)
	for i := 0; i < width; i++ {
		sv, startv, lenv := args[0].Values[i], args[1].Values[i], args[2].Values[i]
		if sv == nil || startv == nil || lenv == nil {
			continue
		}
		s, ok := sv.(string)
		if !ok {
			return Column{}, reifyerr.Cast("SUBSTRING requires a Utf8 first argument", name, args[0].Type.String(), row.Utf8.String())
		}
		start, err := asInt(startv)
		if err != nil {
			return Column{}, err
		}
		length, err := asInt(lenv)
		if err != nil {
			return Column{}, err
		}
		runes := []rune(s)
		from := int(start) - 1 // SQL SUBSTRING is 1-indexed
		if from < 0 {
			from = 0
		}
		if from > len(runes) {
			from = len(runes)
		}
		to := from + int(length)
		if to > len(runes) {
			to = len(runes)
		}
		if to < from {
			to = from
		}
		out[i] = string(runes[from:to])
	}
	return Column{Name: name, Type: row.Utf8, Values: out}, nil
}

func fnHash(sum func([]byte) [16]byte) ScalarFunction {
	return func(name string, args []Column, width int) (Column, error) {
		if len(args) != 1 {
			return Column{}, reifyerr.Schema(name+" takes exactly one argument", name)
		}
		out := make([]any, width)
		for i, v := range args[0].Values {
			if v == nil {
				continue
			}
			b, err := asBytes(v)
			if err != nil {
				return Column{}, err
			}
			h := sum(b)
			out[i] = hex.EncodeToString(h[:])
		}
		return Column{Name: name, Type: row.Utf8, Values: out}, nil
	}
}

func fnSha256(name string, args []Column, width int) (Column, error) {
	if len(args) != 1 {
		return Column{}, reifyerr.Schema("SHA256 takes exactly one argument", name)
	}
	out := make([]any, width)
	for i, v := range args[0].Values {
		if v == nil {
			continue
		}
		b, err := asBytes(v)
		if err != nil {
			return Column{}, err
		}
		h := sha256.Sum256(b)
		out[i] = hex.EncodeToString(h[:])
	}
	return Column{Name: name, Type: row.Utf8, Values: out}, nil
}

func asBytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	default:
		return nil, reifyerr.Cast("expected a Utf8 or Blob argument", "", "", row.Utf8.String())
	}
}

func asInt(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case uint64:
		return int64(x), nil
	default:
		bi, err := ToBigInt(v)
		if err != nil {
			return 0, reifyerr.Internal("expr: expected an integer argument")
		}
		return bi.Int64(), nil
	}
}
