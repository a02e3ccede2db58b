package kv

import (
	"bytes"
	"sort"
	"sync"
)

// memTable is an ordered, in-memory key-value map backed by a sorted slice
// with binary-search insertion. It plays the role spec.md §4.B calls "an
// in-memory B-tree per table": the functional contract (ordered iteration,
// O(log n) point lookup) is what the rest of the system depends on, not
// page-level tuning, so a sorted slice is a faithful, much simpler stand-in
// (see DESIGN.md).
type memTable struct {
	keys   [][]byte
	values [][]byte
}

func newMemTable() *memTable {
	return &memTable{}
}

func (m *memTable) search(key []byte) (int, bool) {
	i := sort.Search(len(m.keys), func(i int) bool { return bytes.Compare(m.keys[i], key) >= 0 })
	if i < len(m.keys) && bytes.Equal(m.keys[i], key) {
		return i, true
	}
	return i, false
}

func (m *memTable) get(key []byte) ([]byte, bool) {
	i, ok := m.search(key)
	if !ok {
		return nil, false
	}
	return m.values[i], true
}

func (m *memTable) set(key, value []byte) {
	i, ok := m.search(key)
	if ok {
		m.values[i] = value
		return
	}
	m.keys = append(m.keys, nil)
	copy(m.keys[i+1:], m.keys[i:])
	m.keys[i] = append([]byte(nil), key...)

	m.values = append(m.values, nil)
	copy(m.values[i+1:], m.values[i:])
	m.values[i] = value
}

func (m *memTable) delete(key []byte) {
	i, ok := m.search(key)
	if !ok {
		return
	}
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	m.values = append(m.values[:i], m.values[i+1:]...)
}

// rangeForward returns up to n entries in [start, end) ascending.
func (m *memTable) rangeForward(start, end []byte, n int) RangeResult {
	lo := sort.Search(len(m.keys), func(i int) bool { return bytes.Compare(m.keys[i], start) >= 0 })
	var out []Entry
	i := lo
	for ; i < len(m.keys); i++ {
		if end != nil && bytes.Compare(m.keys[i], end) >= 0 {
			break
		}
		if n > 0 && len(out) >= n {
			break
		}
		out = append(out, Entry{Key: m.keys[i], Value: m.values[i]})
	}
	hasMore := n > 0 && i < len(m.keys) && (end == nil || bytes.Compare(m.keys[i], end) < 0)
	return RangeResult{Entries: out, HasMore: hasMore}
}

// rangeReverse returns up to n entries in [start, end) descending.
func (m *memTable) rangeReverse(start, end []byte, n int) RangeResult {
	hi := sort.Search(len(m.keys), func(i int) bool { return bytes.Compare(m.keys[i], end) >= 0 })
	var out []Entry
	i := hi - 1
	for ; i >= 0; i-- {
		if bytes.Compare(m.keys[i], start) < 0 {
			break
		}
		if n > 0 && len(out) >= n {
			break
		}
		out = append(out, Entry{Key: m.keys[i], Value: m.values[i]})
	}
	hasMore := n > 0 && i >= 0 && bytes.Compare(m.keys[i], start) >= 0
	return RangeResult{Entries: out, HasMore: hasMore}
}

// MemoryBackend is the primary Backend implementation used for tests and the
// embedded hot tier (spec.md §4.B, §4.C "Hot-only is the default for
// tests").
type MemoryBackend struct {
	mu     sync.Mutex
	tables map[string]*memTable
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{tables: make(map[string]*memTable)}
}

func (b *MemoryBackend) tableFor(t TableID) *memTable {
	key := t.String()
	mt, ok := b.tables[key]
	if !ok {
		mt = newMemTable()
		b.tables[key] = mt
	}
	return mt
}

func (b *MemoryBackend) Get(table TableID, key []byte) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	mt, ok := b.tables[table.String()]
	if !ok {
		return nil, false, nil
	}
	v, ok := mt.get(key)
	return v, ok, nil
}

// Set applies every write in the batch while holding the single backend
// mutex, making the whole multi-table batch atomic with respect to any
// concurrent Get/RangeBatch/Set (spec.md §4.B "atomic across all tables").
func (b *MemoryBackend) Set(batches map[TableID][]Write) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for table, writes := range batches {
		mt := b.tableFor(table)
		for _, w := range writes {
			if w.Value == nil {
				mt.delete(w.Key)
			} else {
				mt.set(w.Key, w.Value)
			}
		}
	}
	return nil
}

func (b *MemoryBackend) RangeBatch(table TableID, start, end []byte, n int) (RangeResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	mt, ok := b.tables[table.String()]
	if !ok {
		return RangeResult{}, nil
	}
	return mt.rangeForward(start, end, n), nil
}

func (b *MemoryBackend) RangeBatchReverse(table TableID, start, end []byte, n int) (RangeResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	mt, ok := b.tables[table.String()]
	if !ok {
		return RangeResult{}, nil
	}
	return mt.rangeReverse(start, end, n), nil
}

func (b *MemoryBackend) EnsureTable(table TableID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tableFor(table)
	return nil
}

func (b *MemoryBackend) ClearTable(table TableID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tables[table.String()] = newMemTable()
	return nil
}

func (b *MemoryBackend) Close() error { return nil }
