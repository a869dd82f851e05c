package aggregate

import (
	"fmt"
	"math/big"

	"ammEngine/internal/amm"
	"ammEngine/internal/model"
)

// Accumulator holds aggregate values for a pool window.
type Accumulator struct {
	PoolAddress string
	PoolMeta    model.PoolMeta
	WindowStart uint64
	WindowEnd   uint64
	SwapCount   uint64
	Deposits    uint64
	VolumeA     *big.Int
	VolumeB     *big.Int
	FeeA        *big.Int
	FeeB        *big.Int
	FirstSeq    uint64
	LastSeq     uint64
	LastTS      uint64
}

func NewAccumulator(event *model.TypedEvent, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		PoolAddress: event.Pool,
		PoolMeta:    event.PoolMeta,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		VolumeA:     big.NewInt(0),
		VolumeB:     big.NewInt(0),
		FeeA:        big.NewInt(0),
		FeeB:        big.NewInt(0),
		FirstSeq:    event.Seq,
		LastSeq:     event.Seq,
		LastTS:      event.Timestamp,
	}
}

// AddEvent folds one decoded event into the window. PoolMeta follows the
// highest sequence seen, so the window closes on post-event reserves.
func (a *Accumulator) AddEvent(event *model.TypedEvent) error {
	if event.Seq >= a.LastSeq {
		a.LastSeq = event.Seq
		a.LastTS = event.Timestamp
		a.PoolMeta = event.PoolMeta
	}
	if event.Seq < a.FirstSeq {
		a.FirstSeq = event.Seq
	}

	switch ev := event.Decoded.(type) {
	case model.SwapExecutedEvent:
		return a.applySwap(ev)
	case model.LiquidityAddedEvent:
		a.Deposits++
		return nil
	case model.PoolCreatedEvent:
		return nil
	default:
		return fmt.Errorf("unexpected payload %T for %s", event.Decoded, event.EventName)
	}
}

// applySwap charges the fee on the input asset the same way the engine does.
func (a *Accumulator) applySwap(swap model.SwapExecutedEvent) error {
	fee, err := amm.FeeAmount(swap.AmountIn, a.PoolMeta.FeeRate)
	if err != nil {
		return err
	}
	in := new(big.Int).SetUint64(swap.AmountIn)
	out := new(big.Int).SetUint64(swap.AmountOut)
	feeInt := new(big.Int).SetUint64(fee)

	if swap.Direction == model.AToB {
		a.VolumeA.Add(a.VolumeA, in)
		a.VolumeB.Add(a.VolumeB, out)
		a.FeeA.Add(a.FeeA, feeInt)
	} else {
		a.VolumeB.Add(a.VolumeB, in)
		a.VolumeA.Add(a.VolumeA, out)
		a.FeeB.Add(a.FeeB, feeInt)
	}
	a.SwapCount++
	return nil
}
