package row

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// field describes one slot of a Layout.
type field struct {
	typ    Type
	offset int // byte offset of the fixed slot (or offset+length pair)
}

// Layout precomputes byte offsets for an ordered list of types, shared by
// every row that follows the same schema (spec.md §4.A).
type Layout struct {
	fields    []field
	bitvecLen int // bytes reserved for the "defined" bitvec
	fixedLen  int // total bytes in the fixed-slot area, bitvec included
}

// NewLayout builds a Layout from an ordered list of types. Variable-width
// types reserve an 8-byte (uint32 offset + uint32 length) slot in the fixed
// area; their actual payload lives in the row's heap.
func NewLayout(types []Type) *Layout {
	l := &Layout{bitvecLen: (len(types) + 7) / 8}
	offset := l.bitvecLen
	l.fields = make([]field, len(types))
	for i, t := range types {
		l.fields[i] = field{typ: t, offset: offset}
		if t.IsFixedWidth() {
			offset += t.FixedWidth()
		} else {
			offset += 8 // offset(uint32) + length(uint32)
		}
	}
	l.fixedLen = offset
	return l
}

// Len returns the number of fields in the layout.
func (l *Layout) Len() int { return len(l.fields) }

// Type returns the type of the i-th field.
func (l *Layout) Type(i int) Type { return l.fields[i].typ }

// NamedLayout adds field names to a Layout and derives a stable fingerprint
// from the ordered (name, type) sequence, used by subscription storage to
// self-describe rows across schema changes (spec.md §4.A).
type NamedLayout struct {
	*Layout
	names       []string
	fingerprint uint64
}

// NewNamedLayout builds a NamedLayout. len(names) must equal len(types).
func NewNamedLayout(names []string, types []Type) (*NamedLayout, error) {
	if len(names) != len(types) {
		return nil, fmt.Errorf("row: NewNamedLayout: %d names but %d types", len(names), len(types))
	}
	nl := &NamedLayout{
		Layout: NewLayout(types),
		names:  append([]string(nil), names...),
	}
	nl.fingerprint = computeFingerprint(names, types)
	return nl, nil
}

// Name returns the name of the i-th field.
func (nl *NamedLayout) Name(i int) string { return nl.names[i] }

// IndexOf returns the index of a field by case-sensitive name, or -1.
func (nl *NamedLayout) IndexOf(name string) int {
	for i, n := range nl.names {
		if n == name {
			return i
		}
	}
	return -1
}

// Fingerprint returns the stable hash of the ordered (name, type) sequence.
func (nl *NamedLayout) Fingerprint() uint64 { return nl.fingerprint }

func computeFingerprint(names []string, types []Type) uint64 {
	h := fnv.New64a()
	var b strings.Builder
	for i, n := range names {
		b.Reset()
		fmt.Fprintf(&b, "%s:%d;", n, types[i])
		h.Write([]byte(b.String()))
	}
	return h.Sum64()
}
