package model

import "github.com/gagliardetto/solana-go"

// Direction selects which asset is sold in a swap.
type Direction bool

const (
	AToB Direction = true
	BToA Direction = false
)

func (d Direction) String() string {
	if d == AToB {
		return "a_to_b"
	}
	return "b_to_a"
}

const (
	EventPoolCreated    = "PoolCreated"
	EventLiquidityAdded = "LiquidityAdded"
	EventSwapExecuted   = "SwapExecuted"
)

// Event is a notification emitted by a committed operation.
type Event interface {
	EventName() string
}

// PoolCreatedEvent is the decoded PoolCreated payload.
type PoolCreatedEvent struct {
	Pool    solana.PublicKey `json:"pool"`
	AssetA  solana.PublicKey `json:"asset_a"`
	AssetB  solana.PublicKey `json:"asset_b"`
	FeeRate uint64           `json:"fee_rate"`
}

func (PoolCreatedEvent) EventName() string { return EventPoolCreated }

// LiquidityAddedEvent is the decoded LiquidityAdded payload.
type LiquidityAddedEvent struct {
	User    solana.PublicKey `json:"user"`
	AmountA uint64           `json:"amount_a"`
	AmountB uint64           `json:"amount_b"`
}

func (LiquidityAddedEvent) EventName() string { return EventLiquidityAdded }

// SwapExecutedEvent is the decoded SwapExecuted payload.
type SwapExecutedEvent struct {
	User      solana.PublicKey `json:"user"`
	AmountIn  uint64           `json:"amount_in"`
	AmountOut uint64           `json:"amount_out"`
	Direction Direction        `json:"a_to_b"`
}

func (SwapExecutedEvent) EventName() string { return EventSwapExecuted }
