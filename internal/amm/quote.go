package amm

import (
	smath "github.com/ava-labs/avalanchego/utils/math"
	"github.com/holiman/uint256"
)

// Quote is the priced result of selling AmountIn into one side of a pool.
type Quote struct {
	AmountIn         uint64 `json:"amount_in"`
	Fee              uint64 `json:"fee"`
	AmountInAfterFee uint64 `json:"amount_in_after_fee"`
	AmountOut        uint64 `json:"amount_out"`
	ReserveIn        uint64 `json:"reserve_in"`
	ReserveOut       uint64 `json:"reserve_out"`
	PriceImpactBps   uint64 `json:"price_impact_bps"`
}

// QuoteSwap prices a swap against the given reserves.
func QuoteSwap(amountIn, reserveIn, reserveOut, feeRate uint64) (Quote, error) {
	fee, err := FeeAmount(amountIn, feeRate)
	if err != nil {
		return Quote{}, err
	}
	afterFee, err := smath.Sub(amountIn, fee)
	if err != nil {
		return Quote{}, ErrArithmeticUnderflow.Wrapf("fee %d exceeds amount %d", fee, amountIn)
	}
	out, err := AmountOut(afterFee, reserveIn, reserveOut)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		AmountIn:         amountIn,
		Fee:              fee,
		AmountInAfterFee: afterFee,
		AmountOut:        out,
		ReserveIn:        reserveIn,
		ReserveOut:       reserveOut,
		PriceImpactBps:   priceImpactBps(amountIn, out, reserveIn, reserveOut),
	}, nil
}

// AmountOut returns floor(amountIn * reserveOut / (reserveIn + amountIn))
// computed in 256 bits. An empty denominator yields zero.
func AmountOut(amountIn, reserveIn, reserveOut uint64) (uint64, error) {
	denominator := new(uint256.Int).Add(uint256.NewInt(reserveIn), uint256.NewInt(amountIn))
	if denominator.IsZero() {
		return 0, nil
	}
	out := new(uint256.Int).Mul(uint256.NewInt(amountIn), uint256.NewInt(reserveOut))
	out.Div(out, denominator)
	if !out.IsUint64() {
		return 0, ErrArithmeticOverflow.Wrapf("amount out for %d against (%d, %d)", amountIn, reserveIn, reserveOut)
	}
	return out.Uint64(), nil
}

// MinimumOut applies a slippage tolerance in basis points to an expected
// output. Tolerances above FeeDenominator accept any output.
func MinimumOut(expected, toleranceBps uint64) uint64 {
	if toleranceBps >= FeeDenominator {
		return 0
	}
	v := new(uint256.Int).Mul(uint256.NewInt(expected), uint256.NewInt(FeeDenominator-toleranceBps))
	v.Div(v, uint256.NewInt(FeeDenominator))
	return v.Uint64()
}

// priceImpactBps compares the execution price out/in against the spot price
// reserveOut/reserveIn.
func priceImpactBps(amountIn, amountOut, reserveIn, reserveOut uint64) uint64 {
	if amountIn == 0 || reserveIn == 0 || reserveOut == 0 {
		return 0
	}
	exec := new(uint256.Int).Mul(uint256.NewInt(amountOut), uint256.NewInt(reserveIn))
	exec.Mul(exec, uint256.NewInt(FeeDenominator))
	spot := new(uint256.Int).Mul(uint256.NewInt(amountIn), uint256.NewInt(reserveOut))
	ratio := exec.Div(exec, spot)
	if !ratio.IsUint64() || ratio.Uint64() >= FeeDenominator {
		return 0
	}
	return FeeDenominator - ratio.Uint64()
}
