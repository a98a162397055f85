package savings

import (
	"encoding/json"

	"nestchain/core/types"
)

// eventToRecord flattens a typed event into a bounded audit log entry. The
// attributes are JSON-encoded so the record survives RLP storage as a single
// string payload.
func eventToRecord(evt *types.Event, height uint64) EventRecord {
	record := EventRecord{Height: height}
	if evt == nil {
		return record
	}
	record.Kind = evt.Type
	if len(evt.Attributes) > 0 {
		if payload, err := json.Marshal(evt.Attributes); err == nil {
			record.Payload = string(payload)
		}
	}
	return record
}
