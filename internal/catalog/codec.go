package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/reifydb/reifydb/internal/reifyerr"
)

// encode JSON-marshals a catalog definition for storage in the mvcc store,
// matching the teacher's own JSON-encoded CatalogEntry persistence
// (internal/storage/pager/catalog.go). Catalog definitions are small,
// infrequently written, and never on the columnar read hot path, so the
// packed row.Values codec (built for table rows) brings no benefit here.
func encode(def any) []byte {
	b, err := json.Marshal(def)
	if err != nil {
		panic(fmt.Sprintf("catalog: marshal %T: %v", def, err))
	}
	return b
}

func decode[T any](data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, reifyerr.InternalWrap(fmt.Sprintf("catalog: unmarshal %T", v), err)
	}
	return v, nil
}
