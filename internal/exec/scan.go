package exec

import (
	"github.com/reifydb/reifydb/internal/expr"
	"github.com/reifydb/reifydb/internal/kv"
	"github.com/reifydb/reifydb/internal/mvcc"
	"github.com/reifydb/reifydb/internal/reifyerr"
	"github.com/reifydb/reifydb/internal/row"
	"github.com/reifydb/reifydb/internal/txn"
)

// Scan reads an mvcc range at the enclosing query's snapshot version
// (spec.md §4.K "Scan reads MVCC range at transaction version"), pulling
// one underlying cursor batch per Next call.
type Scan struct {
	Table      kv.TableID
	Layout     *row.NamedLayout
	Start, End []byte
	BatchSize  int

	cursor *mvcc.Cursor
}

func (s *Scan) Initialize(q *txn.Query) error {
	if s.BatchSize <= 0 {
		s.BatchSize = DefaultBatchSize
	}
	s.cursor = q.Range(s.Table, s.Start, s.End)
	return nil
}

func (s *Scan) Next(q *txn.Query) (*Batch, error) {
	for {
		entries, ok, err := s.cursor.Next(s.BatchSize)
		if err != nil {
			return nil, reifyerr.Storage(err)
		}
		if !ok && len(entries) == 0 {
			return nil, nil
		}
		rows := make([]row.Values, 0, len(entries))
		for _, e := range entries {
			if e.Tombstone {
				continue
			}
			rows = append(rows, row.Values(e.Value))
		}
		if len(rows) == 0 {
			if !ok {
				return nil, nil
			}
			continue // whole fetched batch was tombstones; pull the next one
		}
		return decodeRowsToBatch(s.Layout, rows)
	}
}

func (s *Scan) Headers() []Header {
	hs := make([]Header, s.Layout.Len())
	for i := range hs {
		hs[i] = Header{Name: s.Layout.Name(i), Type: s.Layout.Type(i)}
	}
	return hs
}

// decodeRowsToBatch transposes a slice of encoded rows sharing nl into a
// column-major Batch.
func decodeRowsToBatch(nl *row.NamedLayout, rows []row.Values) (*Batch, error) {
	width := nl.Len()
	cols := make([]expr.Column, width)
	for c := 0; c < width; c++ {
		cols[c] = expr.Column{Name: nl.Name(c), Type: nl.Type(c), Values: make([]any, len(rows))}
	}
	for r, enc := range rows {
		vals, err := row.Decode(nl.Layout, enc)
		if err != nil {
			return nil, reifyerr.Storage(err)
		}
		for c := 0; c < width; c++ {
			cols[c].Values[r] = vals[c]
		}
	}
	return &Batch{Columns: cols}, nil
}
