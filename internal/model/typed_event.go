package model

// TypedEvent is an event record with its payload decoded.
type TypedEvent struct {
	Seq       uint64      `json:"seq"`
	Pool      string      `json:"pool"`
	EventName string      `json:"event_name"`
	Timestamp uint64      `json:"timestamp"`
	Decoded   interface{} `json:"decoded"`
	PoolMeta  PoolMeta    `json:"pool_meta"`
}
