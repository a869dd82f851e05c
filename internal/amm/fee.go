package amm

import "github.com/holiman/uint256"

// FeeDenominator is the basis-point scale of a pool's fee rate.
const FeeDenominator = 10_000

// FeeAmount returns floor(amountIn * feeRate / FeeDenominator). The product is
// taken in 256 bits; only a quotient that no longer fits 64 bits fails.
func FeeAmount(amountIn, feeRate uint64) (uint64, error) {
	fee := new(uint256.Int).Mul(uint256.NewInt(amountIn), uint256.NewInt(feeRate))
	fee.Div(fee, uint256.NewInt(FeeDenominator))
	if !fee.IsUint64() {
		return 0, ErrArithmeticOverflow.Wrapf("fee on %d at %d bps", amountIn, feeRate)
	}
	return fee.Uint64(), nil
}
