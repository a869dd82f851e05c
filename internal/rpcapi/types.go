package rpcapi

import (
	"ammEngine/internal/amm"
	"ammEngine/internal/model"
)

// Namespace is the JSON-RPC method prefix, e.g. amm_swap.
const Namespace = "amm"

// MaxEventsPerCall caps the records returned by one amm_events call.
const MaxEventsPerCall = 1000

type RegisterAssetArgs struct {
	// ID is generated when empty.
	ID       string `json:"id,omitempty"`
	Decimals uint8  `json:"decimals"`
}

type OpenAccountArgs struct {
	Owner string `json:"owner"`
	Asset string `json:"asset"`
}

type MintArgs struct {
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`
}

// CreatePoolArgs creates a pool. Empty vaults are opened as the pool's
// associated accounts.
type CreatePoolArgs struct {
	Authority string `json:"authority"`
	AssetA    string `json:"asset_a"`
	AssetB    string `json:"asset_b"`
	VaultA    string `json:"vault_a,omitempty"`
	VaultB    string `json:"vault_b,omitempty"`
	FeeRate   uint64 `json:"fee_rate"`
}

// AddLiquidityArgs deposits into a pool. Empty user accounts default to the
// user's associated accounts.
type AddLiquidityArgs struct {
	Pool         string `json:"pool"`
	User         string `json:"user"`
	UserAccountA string `json:"user_account_a,omitempty"`
	UserAccountB string `json:"user_account_b,omitempty"`
	AmountA      uint64 `json:"amount_a"`
	AmountB      uint64 `json:"amount_b"`
}

type SwapArgs struct {
	Pool             string `json:"pool"`
	User             string `json:"user"`
	UserAccountA     string `json:"user_account_a,omitempty"`
	UserAccountB     string `json:"user_account_b,omitempty"`
	AmountIn         uint64 `json:"amount_in"`
	MinimumAmountOut uint64 `json:"minimum_amount_out"`
	AToB             bool   `json:"a_to_b"`
}

type QuoteArgs struct {
	Pool     string `json:"pool"`
	AmountIn uint64 `json:"amount_in"`
	AToB     bool   `json:"a_to_b"`
}

type EventsArgs struct {
	From  uint64   `json:"from"`
	To    uint64   `json:"to,omitempty"`
	Pools []string `json:"pools,omitempty"`
	Limit int      `json:"limit,omitempty"`
}

type DerivedPool struct {
	Address string `json:"address"`
	Nonce   uint8  `json:"derivation_nonce"`
	Exists  bool   `json:"exists"`
}

type SwapResult struct {
	Pool  model.Pool `json:"pool"`
	Quote amm.Quote  `json:"quote"`
}

// ErrorInfo identifies a registered error across the wire.
type ErrorInfo struct {
	Codespace string     `json:"codespace"`
	Code      uint32     `json:"code"`
	Cause     *ErrorInfo `json:"cause,omitempty"`
}
