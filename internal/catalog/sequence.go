package catalog

import (
	"encoding/binary"

	"github.com/reifydb/reifydb/internal/keycode"
	"github.com/reifydb/reifydb/internal/kv"
	"github.com/reifydb/reifydb/internal/txn"
)

// nextID allocates the next value of the per-kind sequence (spec.md §4.F
// "IDs are allocated from per-kind sequences"), reading and bumping the
// counter through the command transaction itself so the allocation commits
// or rolls back atomically with the entity it names: a transaction that
// aborts after calling nextID leaves the persisted counter untouched, since
// the bump was only ever a pending write.
func nextID(cmd *txn.Command, kind keycode.Kind) (uint64, error) {
	key := keycode.EncodeSequence(kind)
	current, found, err := cmd.Get(kv.MultiTable, key)
	if err != nil {
		return 0, err
	}
	var next uint64 = 1
	if found {
		next = binary.BigEndian.Uint64(current) + 1
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, next)
	cmd.Set(kv.MultiTable, key, buf)
	return next, nil
}
