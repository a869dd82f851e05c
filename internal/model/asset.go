package model

import "github.com/gagliardetto/solana-go"

// Asset is a fungible asset type known to the ledger.
type Asset struct {
	ID       solana.PublicKey `json:"id" bin:"-"`
	Decimals uint8            `json:"decimals"`
}

// Account holds a balance of one asset for one owner.
type Account struct {
	ID      solana.PublicKey `json:"id" bin:"-"`
	Owner   solana.PublicKey `json:"owner"`
	Asset   solana.PublicKey `json:"asset"`
	Balance uint64           `json:"balance"`
}
