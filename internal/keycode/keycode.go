// Package keycode implements the binary key encoding used by the primitive
// storage backend and the multi-version store.
//
// What: turns logical identifiers (table ids, row ids, commit versions, ...)
// into byte keys with the property that raw byte-lexicographic order is the
// *reverse* of logical order. A forward scan over the raw bytes therefore
// yields descending logical order ("most recent first") with no secondary
// index.
// How: every key starts with a fixed version tag and a kind discriminator,
// both bit-inverted, followed by kind-specific big-endian bit-inverted
// numeric components. Bit inversion of an unsigned big-endian integer maps
// "numerically larger" to "lexicographically smaller", which is exactly the
// reversal the spec requires.
// Why: recent-first range scans (CDC replay tail, "last N versions of a row")
// fall out of plain forward iteration instead of needing a second, explicitly
// maintained descending index.
package keycode

import (
	"encoding/binary"
	"fmt"
)

// Version is the single supported key-format version tag. New incompatible
// encodings would bump this; the decoder rejects any other value.
const Version byte = 1

// Kind discriminates the logical entity a key addresses. The enumeration is
// part of the on-disk format (spec.md §6): existing values must never be
// reordered or reused, new kinds are appended.
type Kind byte

const (
	KindNamespace Kind = iota + 1
	KindTable
	KindView
	KindColumn
	KindPrimaryKey
	KindFlow
	KindFlowNode
	KindFlowEdge
	KindFlowEdgeByFlow
	KindSubscriptionRow
	KindDictionaryEntryIndex
	KindTableRow
	KindCdc
	KindSequence
	KindOperatorState
	KindEntityByName
	KindConsumerCursor
	kindMax
)

func (k Kind) String() string {
	switch k {
	case KindNamespace:
		return "Namespace"
	case KindTable:
		return "Table"
	case KindView:
		return "View"
	case KindColumn:
		return "Column"
	case KindPrimaryKey:
		return "PrimaryKey"
	case KindFlow:
		return "Flow"
	case KindFlowNode:
		return "FlowNode"
	case KindFlowEdge:
		return "FlowEdge"
	case KindFlowEdgeByFlow:
		return "FlowEdgeByFlow"
	case KindSubscriptionRow:
		return "SubscriptionRow"
	case KindDictionaryEntryIndex:
		return "DictionaryEntryIndex"
	case KindTableRow:
		return "TableRow"
	case KindCdc:
		return "Cdc"
	case KindSequence:
		return "Sequence"
	case KindOperatorState:
		return "OperatorState"
	case KindEntityByName:
		return "EntityByName"
	case KindConsumerCursor:
		return "ConsumerCursor"
	default:
		return fmt.Sprintf("Kind(%d)", byte(k))
	}
}

// invert flips every bit of b, turning ascending big-endian order into
// descending byte-lexicographic order.
func invertByte(b byte) byte { return ^b }

func invertBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[i] = invertByte(v)
	}
	return out
}

// Key is a decoded, structured view of an EncodedKey. Payload holds the
// kind-specific components in the order they were written, already
// un-inverted (i.e. in logical, ascending form).
type Key struct {
	Kind    Kind
	Payload []uint64  // fixed-width numeric components, logical order
	Bytes   []byte    // optional trailing raw bytes (e.g. a name or row key)
}

// Encoded is an opaque, comparable byte key.
type Encoded []byte

// Builder incrementally constructs an Encoded key. Zero value is not usable;
// use NewBuilder.
type Builder struct {
	buf []byte
}

// NewBuilder starts a key of the given kind.
func NewBuilder(kind Kind) *Builder {
	b := &Builder{buf: make([]byte, 0, 32)}
	b.buf = append(b.buf, invertByte(Version), invertByte(byte(kind)))
	return b
}

// PutUint64 appends a bit-inverted big-endian u64 component (numerically
// larger logical values sort earlier).
func (b *Builder) PutUint64(v uint64) *Builder {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	b.buf = append(b.buf, invertBytes(tmp[:])...)
	return b
}

// PutUint32 appends a bit-inverted big-endian u32 component.
func (b *Builder) PutUint32(v uint32) *Builder {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	b.buf = append(b.buf, invertBytes(tmp[:])...)
	return b
}

// PutRawBytes appends raw, non-inverted bytes (used for variable-length
// discriminators like a row's primary key bytes, where lexicographic order
// of the payload itself is meaningful and must not be reversed).
func (b *Builder) PutRawBytes(raw []byte) *Builder {
	b.buf = append(b.buf, raw...)
	return b
}

// Bytes finalizes and returns the encoded key.
func (b *Builder) Bytes() Encoded {
	out := make([]byte, len(b.buf))
	copy(out, b.buf)
	return out
}

// expectPrefix verifies the version tag and kind byte of an encoded key and
// returns the remaining payload bytes.
func expectPrefix(enc Encoded, want Kind) ([]byte, error) {
	if len(enc) < 2 {
		return nil, fmt.Errorf("keycode: key too short: %d bytes", len(enc))
	}
	gotVersion := invertByte(enc[0])
	if gotVersion != Version {
		return nil, fmt.Errorf("keycode: unexpected version tag %d, want %d", gotVersion, Version)
	}
	gotKind := Kind(invertByte(enc[1]))
	if gotKind != want {
		return nil, fmt.Errorf("keycode: unexpected kind %s, want %s", gotKind, want)
	}
	return enc[2:], nil
}

// DecodeKind reads only the kind discriminator of an encoded key, without
// validating the rest of the payload. Used by range scans that need to
// dispatch on kind before fully decoding.
func DecodeKind(enc Encoded) (Kind, error) {
	if len(enc) < 2 {
		return 0, fmt.Errorf("keycode: key too short: %d bytes", len(enc))
	}
	if v := invertByte(enc[0]); v != Version {
		return 0, fmt.Errorf("keycode: unexpected version tag %d, want %d", v, Version)
	}
	return Kind(invertByte(enc[1])), nil
}

func readUint64(b []byte) (uint64, []byte, error) {
	if len(b) < 8 {
		return 0, nil, fmt.Errorf("keycode: short uint64 component (%d bytes)", len(b))
	}
	tmp := invertBytes(b[:8])
	return binary.BigEndian.Uint64(tmp), b[8:], nil
}

func readUint32(b []byte) (uint32, []byte, error) {
	if len(b) < 4 {
		return 0, nil, fmt.Errorf("keycode: short uint32 component (%d bytes)", len(b))
	}
	tmp := invertBytes(b[:4])
	return binary.BigEndian.Uint32(tmp), b[4:], nil
}

// PrefixRange returns [start, end) bytes such that a forward raw byte scan
// over [start, end) enumerates exactly the keys sharing the given kind and
// the exact prefix bytes supplied (already-inverted numeric components, or
// raw bytes, as appended by the caller through a Builder up to but not
// including the final discriminator). The end bound is the shortest byte
// string greater than every key that begins with start: start with its last
// non-0xFF byte incremented and the bytes after it dropped. With an empty
// prefix this is the two-byte key of kind-1, since Kind itself is
// bit-inverted.
func PrefixRange(kind Kind, prefix []byte) (start, end Encoded) {
	startBuf := make([]byte, 0, 2+len(prefix))
	startBuf = append(startBuf, invertByte(Version), invertByte(byte(kind)))
	startBuf = append(startBuf, prefix...)

	endBuf := append([]byte(nil), startBuf...)
	for i := len(endBuf) - 1; i >= 0; i-- {
		if endBuf[i] != 0xFF {
			endBuf[i]++
			return Encoded(startBuf), Encoded(endBuf[:i+1])
		}
	}
	return Encoded(startBuf), nil
}
