package reifydb

import "github.com/reifydb/reifydb/internal/exec"

// Frame is the wire layer's unit of query result (spec.md §6 "query_as
// ... -> Vec<Frame>"): the fully drained output of one exec.Node tree,
// column-major like the batches it was assembled from.
type Frame struct {
	Headers []exec.Header
	Columns []exec.Column
}

// Width reports the row count, 0 for an empty frame.
func (f *Frame) Width() int {
	if len(f.Columns) == 0 {
		return 0
	}
	return len(f.Columns[0].Values)
}

// Column returns the named column, or an error if no such column exists.
func (f *Frame) Column(name string) (exec.Column, error) {
	b := exec.Batch{Columns: f.Columns}
	return b.Column(name)
}

// drain pulls every batch plan produces (after Initialize has already been
// called) via pull and concatenates them column-wise into one Frame, in
// the order plan's Headers declare. pull is a closure over the open
// *txn.Query so this function doesn't need to import internal/txn itself.
func drain(plan exec.Node, pull func() (*exec.Batch, error)) (*Frame, error) {
	headers := plan.Headers()
	f := &Frame{Headers: headers}
	f.Columns = make([]exec.Column, len(headers))
	for i, h := range headers {
		f.Columns[i] = exec.Column{Name: h.Name, Type: h.Type}
	}

	for {
		b, err := pull()
		if err != nil {
			return nil, err
		}
		if b == nil {
			break
		}
		for i := range f.Columns {
			col, err := b.Column(f.Columns[i].Name)
			if err != nil {
				return nil, err
			}
			f.Columns[i].Values = append(f.Columns[i].Values, col.Values...)
		}
	}
	return f, nil
}
