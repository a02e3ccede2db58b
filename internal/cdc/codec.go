package cdc

import (
	"encoding/json"

	"github.com/reifydb/reifydb/internal/reifyerr"
)

// encodeEvent serializes an Event for storage in the CDC table, the same
// JSON-on-MultiTable convention internal/catalog uses for its own
// definitions.
func encodeEvent(ev Event) []byte {
	raw, err := json.Marshal(ev)
	if err != nil {
		panic("cdc: event is not JSON-serializable: " + err.Error())
	}
	return raw
}

// decodeEvent reverses encodeEvent.
func decodeEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, reifyerr.InternalWrap("cdc: decode event", err)
	}
	return ev, nil
}
