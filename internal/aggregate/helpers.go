package aggregate

import (
	"math/big"
	"time"
)

const ratioScale = 18

// formatTokenAmount renders base units as a decimal string with the asset's
// precision.
func formatTokenAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	if decimals == 0 {
		return value.String()
	}
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Rat).SetFrac(value, denom).FloatString(int(decimals))
}

// computeFeeRates returns fee/TVL per side. Both are in the same asset's
// base units, so decimals cancel.
func computeFeeRates(feeA, feeB, tvlA, tvlB *big.Int) (*string, *string) {
	var rateA, rateB *string
	if rate := ratio(feeA, tvlA); rate != nil {
		text := rate.FloatString(ratioScale)
		rateA = &text
	}
	if rate := ratio(feeB, tvlB); rate != nil {
		text := rate.FloatString(ratioScale)
		rateB = &text
	}
	return rateA, rateB
}

func ratio(num, denom *big.Int) *big.Rat {
	if num == nil || num.Sign() == 0 || denom == nil || denom.Sign() == 0 {
		return nil
	}
	return new(big.Rat).SetFrac(num, denom)
}

// computeAPR annualizes the window fee rate. With fees on both sides the
// rates are averaged; a constant-product pool holds equal value in each
// reserve.
func computeAPR(feeRateA, feeRateB *string, windowSeconds uint64) *string {
	if windowSeconds == 0 {
		return nil
	}

	var rates []*big.Rat
	for _, s := range []*string{feeRateA, feeRateB} {
		if s == nil {
			continue
		}
		r, ok := new(big.Rat).SetString(*s)
		if !ok {
			return nil
		}
		rates = append(rates, r)
	}
	if len(rates) == 0 {
		return nil
	}

	rate := new(big.Rat)
	for _, r := range rates {
		rate.Add(rate, r)
	}
	rate.Quo(rate, big.NewRat(int64(len(rates)), 1))

	yearSeconds := big.NewRat(int64(365*24*time.Hour/time.Second), 1)
	apr := new(big.Rat).Mul(rate, yearSeconds)
	apr.Quo(apr, big.NewRat(int64(windowSeconds), 1))
	val := apr.FloatString(ratioScale)
	return &val
}
