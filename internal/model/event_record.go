package model

import (
	"encoding/json"
)

// EventRecord is the normalized, persisted form of an emitted event. Data is
// the 0x-prefixed ABI encoding of the event arguments; Topic0 identifies the
// event signature.
type EventRecord struct {
	Seq       uint64   `json:"seq"`
	Pool      string   `json:"pool"`
	EventName string   `json:"event_name"`
	Topic0    string   `json:"topic0"`
	Timestamp uint64   `json:"timestamp"`
	Data      string   `json:"data"`
	PoolMeta  PoolMeta `json:"pool_meta"`
}

// MarshalJSON ensures EventRecord is encoded with stable field names.
func (r EventRecord) MarshalJSON() ([]byte, error) {
	type Alias EventRecord
	return json.Marshal(Alias(r))
}

// UnmarshalJSON decodes an EventRecord from JSON.
func (r *EventRecord) UnmarshalJSON(data []byte) error {
	type Alias EventRecord
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = EventRecord(a)
	return nil
}
