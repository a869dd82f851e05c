package model

// PoolRow is the analytics-side view of a pool.
type PoolRow struct {
	Address      string `json:"address"`
	AssetA       string `json:"asset_a"`
	AssetB       string `json:"asset_b"`
	FeeRate      uint64 `json:"fee_rate"`
	ReserveA     uint64 `json:"reserve_a"`
	ReserveB     uint64 `json:"reserve_b"`
	FirstSeenSeq uint64 `json:"first_seen_seq"`
	LastSeq      uint64 `json:"last_seq"`
}
