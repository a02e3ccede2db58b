package cdc

import (
	"encoding/binary"

	"github.com/reifydb/reifydb/internal/keycode"
	"github.com/reifydb/reifydb/internal/kv"
)

// Scan reads every CdcEvent committed in versions (fromVersion, toVersion]
// from the CDC table, in ascending (version, seq) order. The CDC table is
// written directly against the raw backend at commit time (internal/mvcc's
// CommitMulti keys it by keycode.EncodeCdc(v, seq) with no extra MVCC
// version suffix), so Scan reads backend directly rather than through
// mvcc.Store.
func Scan(backend kv.Backend, cdcTable kv.TableID, fromVersion, toVersion uint64) ([]Event, error) {
	if toVersion <= fromVersion {
		return nil, nil
	}
	start, end := keycode.CdcRangeForVersions(fromVersion+1, toVersion)

	var events []Event
	cur := []byte(start)
	for {
		res, err := backend.RangeBatch(cdcTable, cur, end, 256)
		if err != nil {
			return nil, err
		}
		for _, entry := range res.Entries {
			ev, err := decodeEvent(entry.Value)
			if err != nil {
				return nil, err
			}
			events = append(events, ev)
		}
		if len(res.Entries) == 0 || !res.HasMore {
			break
		}
		cur = append(append([]byte(nil), res.Entries[len(res.Entries)-1].Key...), 0x00)
	}
	return events, nil
}

func loadCursor(backend kv.Backend, consumerID string) (uint64, error) {
	raw, found, err := backend.Get(kv.SingleTable, keycode.ConsumerCursorKey(consumerID))
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	if len(raw) != 8 {
		return 0, nil
	}
	return binary.BigEndian.Uint64(raw), nil
}

func saveCursor(backend kv.Backend, consumerID string, v uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return backend.Set(map[kv.TableID][]kv.Write{
		kv.SingleTable: {{Key: keycode.ConsumerCursorKey(consumerID), Value: buf}},
	})
}
