package model

import "github.com/gagliardetto/solana-go"

// Pool is the persisted constant-product pool record.
//
// Address is the record key and is not part of the encoded layout.
type Pool struct {
	Address   solana.PublicKey `json:"address" bin:"-"`
	Authority solana.PublicKey `json:"authority"`
	AssetA    solana.PublicKey `json:"asset_a"`
	AssetB    solana.PublicKey `json:"asset_b"`
	VaultA    solana.PublicKey `json:"vault_a"`
	VaultB    solana.PublicKey `json:"vault_b"`
	FeeRate   uint64           `json:"fee_rate"`
	ReserveA  uint64           `json:"reserve_a"`
	ReserveB  uint64           `json:"reserve_b"`
	Nonce     uint8            `json:"derivation_nonce"`
}

// Reserves returns (reserve_in, reserve_out) for a swap direction.
func (p Pool) Reserves(dir Direction) (uint64, uint64) {
	if dir == AToB {
		return p.ReserveA, p.ReserveB
	}
	return p.ReserveB, p.ReserveA
}

// Vaults returns (vault_in, vault_out) for a swap direction.
func (p Pool) Vaults(dir Direction) (solana.PublicKey, solana.PublicKey) {
	if dir == AToB {
		return p.VaultA, p.VaultB
	}
	return p.VaultB, p.VaultA
}

// Assets returns (asset_in, asset_out) for a swap direction.
func (p Pool) Assets(dir Direction) (solana.PublicKey, solana.PublicKey) {
	if dir == AToB {
		return p.AssetA, p.AssetB
	}
	return p.AssetB, p.AssetA
}

// Meta snapshots the pool fields carried on every event record.
func (p Pool) Meta() PoolMeta {
	return PoolMeta{
		AssetA:   p.AssetA.String(),
		AssetB:   p.AssetB.String(),
		FeeRate:  p.FeeRate,
		ReserveA: p.ReserveA,
		ReserveB: p.ReserveB,
	}
}
