package model

// PoolMeta captures pool identity and the reserves right after an event committed.
type PoolMeta struct {
	AssetA   string `json:"asset_a"`
	AssetB   string `json:"asset_b"`
	FeeRate  uint64 `json:"fee_rate"`
	ReserveA uint64 `json:"reserve_a"`
	ReserveB uint64 `json:"reserve_b"`
}
