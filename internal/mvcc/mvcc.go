// Package mvcc implements the multi-version store (spec.md §4.C): it sits on
// top of internal/kv and turns a plain key-value backend into one where every
// logical key carries a history of versioned values. Physical keys are
// `logical_key || invert(version)`, so that for a fixed logical key the most
// recent version sorts first under a forward scan over the backend — the
// same bit-inversion trick internal/keycode uses for its own fields, applied
// here to the version suffix instead of a whole key.
package mvcc

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/reifydb/reifydb/internal/kv"
)

// versionSuffixLen is the width of the inverted-version suffix appended to
// every logical key.
const versionSuffixLen = 8

// Delta is a single logical-key write applied at a commit version. Value ==
// nil writes a tombstone (a deleted marker, not an absent entry — readers at
// a version before the delete must still see the prior value).
type Delta struct {
	Key   []byte
	Value []byte
}

// composeVersionedKey appends the bit-inverted big-endian version to a
// logical key, so that ascending byte order on the suffix is descending
// version order.
func composeVersionedKey(logicalKey []byte, version uint64) []byte {
	out := make([]byte, len(logicalKey)+versionSuffixLen)
	copy(out, logicalKey)
	binary.BigEndian.PutUint64(out[len(logicalKey):], ^version)
	return out
}

// splitVersionedKey reverses composeVersionedKey.
func splitVersionedKey(physical []byte) (logicalKey []byte, version uint64, err error) {
	if len(physical) < versionSuffixLen {
		return nil, 0, fmt.Errorf("mvcc: physical key too short: %d bytes", len(physical))
	}
	split := len(physical) - versionSuffixLen
	logicalKey = physical[:split]
	version = ^binary.BigEndian.Uint64(physical[split:])
	return logicalKey, version, nil
}

// logicalKeyUpperBound returns the exclusive upper bound of the physical-key
// range occupied by every version of logicalKey (i.e. the smallest physical
// key strictly greater than any `logicalKey || invert(v)`). Every physical
// key for logicalKey shares logicalKey as a byte prefix followed by an
// 8-byte suffix, so appending a single 0x00 byte is not a valid bound: for
// any version small enough to matter, invert(v)'s leading byte is 0xFF, and
// `logicalKey || 0x00` sorts below every such physical key instead of above
// it. The correct bound is the prefix successor of logicalKey itself —
// increment its last byte that isn't already 0xFF, dropping everything after
// it — which is the smallest key greater than logicalKey and everything
// logicalKey prefixes. A logicalKey made entirely of 0xFF bytes has no
// finite successor; nil signals "no upper bound" to kv.Backend.RangeBatch,
// which already treats a nil end as scanning to the end of the table.
func logicalKeyUpperBound(logicalKey []byte) []byte {
	successor := append([]byte(nil), logicalKey...)
	for i := len(successor) - 1; i >= 0; i-- {
		if successor[i] != 0xFF {
			successor[i]++
			return successor[:i+1]
		}
	}
	return nil
}

// Tier identifies which backend a logical key's versions are written to.
type Tier int

const (
	// TierHot is consulted first on every read and is the only tier used
	// by the default (hot-only) configuration (spec.md §4.C "Hot-only is
	// the default for tests").
	TierHot Tier = iota
	// TierWarm is consulted when a key is absent from hot. Writers may
	// choose to write hot, warm, or both per commit.
	TierWarm
)

// Resolver decides, for a given table and logical key, which tiers a commit
// should write to. The zero Resolver (nil) defaults to hot-only.
type Resolver func(table kv.TableID, logicalKey []byte) []Tier

func defaultResolver(kv.TableID, []byte) []Tier { return []Tier{TierHot} }

// Store is the multi-version store over one or more kv.Backend tiers.
type Store struct {
	hot      kv.Backend
	warm     kv.Backend // nil if no warm tier configured
	resolver Resolver
}

// NewStore builds a hot-only store, the default configuration for tests and
// for the embedded in-memory engine (spec.md §4.C).
func NewStore(hot kv.Backend) *Store {
	return &Store{hot: hot, resolver: defaultResolver}
}

// NewTieredStore builds a store with both a hot and a warm tier. Pass a
// Resolver to control per-commit placement; a nil resolver defaults every
// commit to hot-only, matching NewStore.
func NewTieredStore(hot, warm kv.Backend, resolver Resolver) *Store {
	if resolver == nil {
		resolver = defaultResolver
	}
	return &Store{hot: hot, warm: warm, resolver: resolver}
}

func (s *Store) backendFor(tier Tier) kv.Backend {
	if tier == TierWarm {
		return s.warm
	}
	return s.hot
}

// Get returns the value visible at logicalKey as of version v: the value
// written by the highest commit version ≤ v, or (nil, false) if the key has
// no such version or was tombstoned there (spec.md §4.C "get").
func (s *Store) Get(table kv.TableID, logicalKey []byte, v uint64) ([]byte, bool, error) {
	start := composeVersionedKey(logicalKey, v) // smallest byte key for version == v
	end := logicalKeyUpperBound(logicalKey)

	for _, tier := range []Tier{TierHot, TierWarm} {
		backend := s.backendFor(tier)
		if backend == nil {
			continue
		}
		res, err := backend.RangeBatch(table, start, end, 1)
		if err != nil {
			return nil, false, fmt.Errorf("mvcc: get: %w", err)
		}
		if len(res.Entries) == 0 {
			continue
		}
		entry := res.Entries[0]
		if entry.Value == nil {
			return nil, false, nil // tombstone: definitively absent
		}
		return entry.Value, true, nil
	}
	return nil, false, nil
}

// Contains reports whether logicalKey has a non-tombstoned value visible at
// version v.
func (s *Store) Contains(table kv.TableID, logicalKey []byte, v uint64) (bool, error) {
	_, ok, err := s.Get(table, logicalKey, v)
	return ok, err
}

// Commit writes every delta of a single table at version v, atomically with
// a matching CDC log entry per delta (spec.md §4.C "commit"). It is a thin
// convenience wrapper around CommitMulti for the common single-table case.
func (s *Store) Commit(table kv.TableID, deltas []Delta, v uint64, cdcTable kv.TableID, cdc CdcWriter) error {
	return s.CommitMulti(map[kv.TableID][]Delta{table: deltas}, v, cdcTable, cdc)
}

// CommitMulti writes every delta across possibly several tables at version
// v, atomically with a matching CDC log entry per delta, as one physical
// batch per tier (spec.md §4.C "commit"; §4.B "atomic across all tables").
// A command transaction that touches both catalog keys (kv.MultiTable) and
// flow-operator state (kv.OperatorTableID) commits both in one call so a
// crash can never observe one without the other.
func (s *Store) CommitMulti(deltasByTable map[kv.TableID][]Delta, v uint64, cdcTable kv.TableID, cdc CdcWriter) error {
	tiersUsed := map[Tier]bool{}
	writes := map[Tier]map[kv.TableID][]kv.Write{}

	for table, deltas := range deltasByTable {
		for _, d := range deltas {
			for _, tier := range s.resolver(table, d.Key) {
				if s.backendFor(tier) == nil {
					continue
				}
				tiersUsed[tier] = true
				if writes[tier] == nil {
					writes[tier] = map[kv.TableID][]kv.Write{}
				}
				physical := composeVersionedKey(d.Key, v)
				writes[tier][table] = append(writes[tier][table], kv.Write{Key: physical, Value: d.Value})
			}
		}
	}

	var cdcRecords []kv.Write
	if cdc != nil {
		var err error
		cdcRecords, err = cdc.Records(deltasByTable, v)
		if err != nil {
			return fmt.Errorf("mvcc: build cdc records: %w", err)
		}
	}

	for tier := range tiersUsed {
		batch := writes[tier]
		if len(cdcRecords) > 0 {
			batch[cdcTable] = cdcRecords
		}
		if err := s.backendFor(tier).Set(batch); err != nil {
			return fmt.Errorf("mvcc: commit: %w", err)
		}
	}
	return nil
}

// CdcWriter turns a commit's deltas into the raw writes that belong in the
// CDC table at the same version. internal/cdc supplies the real
// implementation; kept as an interface here so internal/mvcc never imports
// internal/cdc (the dependency runs the other way: cdc reads mvcc's commit
// log).
type CdcWriter interface {
	Records(deltasByTable map[kv.TableID][]Delta, v uint64) ([]kv.Write, error)
}

// RangeEntry is one collapsed logical key produced by a range scan: the
// latest value visible at the scan's version, or a tombstone.
type RangeEntry struct {
	Key       []byte
	Value     []byte // nil if tombstoned
	Tombstone bool
}

// Cursor lets a range scan resume where it left off once a caller has
// consumed a batch, re-entering the backend instead of holding a live
// iterator open across calls (spec.md §4.C "yields a cursor-bearing iterator
// that re-enters the backend when the batch is exhausted").
type Cursor struct {
	store    *Store
	table    kv.TableID
	version  uint64
	end      []byte
	reverse  bool
	next     []byte // physical key to resume scanning from
	done     bool
}

// Range starts a forward scan over logical keys in [start, end), collapsing
// each key's version chain to at most one entry at version ≤ v.
func (s *Store) Range(table kv.TableID, start, end []byte, v uint64) *Cursor {
	return &Cursor{store: s, table: table, version: v, next: start, end: end}
}

// RangeRev starts a reverse scan over logical keys in [start, end).
func (s *Store) RangeRev(table kv.TableID, start, end []byte, v uint64) *Cursor {
	return &Cursor{store: s, table: table, version: v, next: end, end: start, reverse: true}
}

// Next returns up to batchSize collapsed logical-key entries. It may read
// many more physical entries than batchSize while skipping older versions of
// already-seen keys (spec.md §4.C "Iterator semantics"). Returns a nil
// slice and ok==false once the range is exhausted.
func (c *Cursor) Next(batchSize int) (entries []RangeEntry, ok bool, err error) {
	if c.done || batchSize <= 0 {
		return nil, false, nil
	}

	seen := map[string]bool{}
	const physicalFetchChunk = 256

	cur := c.next
	for len(entries) < batchSize {
		var res kv.RangeResult
		if c.reverse {
			res, err = c.fetchReverse(cur, physicalFetchChunk)
		} else {
			res, err = c.fetchForward(cur, physicalFetchChunk)
		}
		if err != nil {
			return nil, false, err
		}
		if len(res.Entries) == 0 {
			c.done = true
			break
		}

		for _, phys := range res.Entries {
			logicalKey, version, splitErr := splitVersionedKey(phys.Key)
			if splitErr != nil {
				return nil, false, fmt.Errorf("mvcc: range: %w", splitErr)
			}
			if version > c.version {
				continue // not visible at the scan's version
			}
			sk := string(logicalKey)
			if seen[sk] {
				continue // already have the latest ≤ v for this key
			}
			seen[sk] = true
			entries = append(entries, RangeEntry{
				Key:       logicalKey,
				Value:     phys.Value,
				Tombstone: phys.Value == nil,
			})
			if len(entries) >= batchSize {
				break
			}
		}

		if c.reverse {
			cur = res.Entries[len(res.Entries)-1].Key
		} else {
			cur = append(append([]byte(nil), res.Entries[len(res.Entries)-1].Key...), 0x00)
		}
		if !res.HasMore && len(res.Entries) < physicalFetchChunk {
			c.done = true
			break
		}
	}
	c.next = cur
	if len(entries) == 0 {
		return nil, false, nil
	}
	return entries, true, nil
}

func (c *Cursor) fetchForward(from []byte, n int) (kv.RangeResult, error) {
	merged := kv.RangeResult{}
	for _, tier := range []Tier{TierHot, TierWarm} {
		backend := c.store.backendFor(tier)
		if backend == nil {
			continue
		}
		res, err := backend.RangeBatch(c.table, from, c.end, n)
		if err != nil {
			return kv.RangeResult{}, err
		}
		merged.Entries = mergeSortedEntries(merged.Entries, res.Entries, false)
		merged.HasMore = merged.HasMore || res.HasMore
	}
	return merged, nil
}

func (c *Cursor) fetchReverse(to []byte, n int) (kv.RangeResult, error) {
	merged := kv.RangeResult{}
	for _, tier := range []Tier{TierHot, TierWarm} {
		backend := c.store.backendFor(tier)
		if backend == nil {
			continue
		}
		res, err := backend.RangeBatchReverse(c.table, c.end, to, n)
		if err != nil {
			return kv.RangeResult{}, err
		}
		merged.Entries = mergeSortedEntries(merged.Entries, res.Entries, true)
		merged.HasMore = merged.HasMore || res.HasMore
	}
	return merged, nil
}

// mergeSortedEntries merges two already-sorted entry slices, keeping the
// overall order. Used to combine hot and warm tier results for a single
// logical range step.
func mergeSortedEntries(a, b []kv.Entry, reverse bool) []kv.Entry {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make([]kv.Entry, 0, len(a)+len(b))
	i, j := 0, 0
	less := func(x, y []byte) bool {
		if reverse {
			return bytes.Compare(x, y) > 0
		}
		return bytes.Compare(x, y) < 0
	}
	for i < len(a) && j < len(b) {
		if less(a[i].Key, b[j].Key) {
			out = append(out, a[i])
			i++
		} else if less(b[j].Key, a[i].Key) {
			out = append(out, b[j])
			j++
		} else {
			// same physical key in both tiers: hot wins.
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
