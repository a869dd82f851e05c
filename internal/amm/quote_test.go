package amm

import (
	"math/big"
	"testing"

	"pgregory.net/rapid"

	"ammEngine/internal/model"
)

func TestFeeAmount(t *testing.T) {
	cases := []struct {
		amount, rate, want uint64
	}{
		{100, 30, 0},
		{1_000, 100, 10},
		{10_000, 30, 30},
		{1, 10_000, 1},
		{^uint64(0), 10_000, ^uint64(0)},
		{12_345, 0, 0},
	}
	for _, tc := range cases {
		got, err := FeeAmount(tc.amount, tc.rate)
		if err != nil {
			t.Fatalf("FeeAmount(%d, %d): %v", tc.amount, tc.rate, err)
		}
		if got != tc.want {
			t.Fatalf("FeeAmount(%d, %d) = %d, want %d", tc.amount, tc.rate, got, tc.want)
		}
	}
	if _, err := FeeAmount(^uint64(0), ^uint64(0)); err == nil {
		t.Fatalf("expected overflow for maximal inputs")
	}
}

func TestAmountOutZeroDenominator(t *testing.T) {
	out, err := AmountOut(0, 0, 1_000)
	if err != nil || out != 0 {
		t.Fatalf("AmountOut(0, 0, 1000) = %d, %v", out, err)
	}
}

func TestAmountOutWideProduct(t *testing.T) {
	// the numerator does not fit 64 bits
	max := ^uint64(0)
	out, err := AmountOut(max, max, max)
	if err != nil {
		t.Fatalf("AmountOut: %v", err)
	}
	if want := max / 2; out != want {
		t.Fatalf("AmountOut = %d, want %d", out, want)
	}
}

func TestMinimumOut(t *testing.T) {
	if got := MinimumOut(1_000, 50); got != 995 {
		t.Fatalf("MinimumOut(1000, 50) = %d", got)
	}
	if got := MinimumOut(1_000, 0); got != 1_000 {
		t.Fatalf("MinimumOut(1000, 0) = %d", got)
	}
	if got := MinimumOut(1_000, 20_000); got != 0 {
		t.Fatalf("MinimumOut(1000, 20000) = %d", got)
	}
}

func TestPriceImpact(t *testing.T) {
	q, err := QuoteSwap(100, 1_000, 1_000, 30)
	if err != nil {
		t.Fatalf("QuoteSwap: %v", err)
	}
	// 90 out for 100 in at a 1:1 spot price
	if q.PriceImpactBps != 1_000 {
		t.Fatalf("price impact = %d bps", q.PriceImpactBps)
	}
}

func TestQuoteProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		reserveIn := rapid.Uint64Range(1, 1<<62).Draw(t, "reserveIn")
		reserveOut := rapid.Uint64Range(0, 1<<62).Draw(t, "reserveOut")
		amountIn := rapid.Uint64Range(0, 1<<62).Draw(t, "amountIn")
		feeRate := rapid.Uint64Range(0, FeeDenominator).Draw(t, "feeRate")

		q, err := QuoteSwap(amountIn, reserveIn, reserveOut, feeRate)
		if err != nil {
			t.Fatalf("QuoteSwap: %v", err)
		}
		if q.Fee > amountIn {
			t.Fatalf("fee %d exceeds input %d", q.Fee, amountIn)
		}
		if q.Fee+q.AmountInAfterFee != amountIn {
			t.Fatalf("fee split does not add up: %+v", q)
		}
		if reserveOut > 0 && q.AmountOut >= reserveOut {
			t.Fatalf("output %d drains reserve %d", q.AmountOut, reserveOut)
		}
		if q.AmountOut > q.AmountInAfterFee && reserveOut <= reserveIn {
			t.Fatalf("output %d exceeds input %d at a price at most 1", q.AmountOut, q.AmountInAfterFee)
		}
		if err := checkProduct(reserveIn, reserveOut, reserveIn+amountIn, reserveOut-q.AmountOut); err != nil {
			t.Fatalf("product decreased: %v", err)
		}
	})
}

func TestSwapSequenceKeepsReservesBacked(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newPoolFixture(t, rapid.Uint64Range(0, 500).Draw(rt, "feeRate"))
		if _, err := f.addLiquidity(
			rapid.Uint64Range(1, 100_000).Draw(rt, "seedA"),
			rapid.Uint64Range(1, 100_000).Draw(rt, "seedB"),
		); err != nil {
			rt.Fatalf("seed liquidity: %v", err)
		}
		steps := rapid.IntRange(1, 20).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			before := f.current()
			dir := rapid.Bool().Draw(rt, "aToB")
			res, err := f.swap(rapid.Uint64Range(1, 50_000).Draw(rt, "amountIn"), 0, model.Direction(dir))
			if err != nil {
				if f.current() != before {
					rt.Fatalf("failed swap changed the pool")
				}
				continue
			}
			oldK := new(big.Int).Mul(new(big.Int).SetUint64(before.ReserveA), new(big.Int).SetUint64(before.ReserveB))
			newK := new(big.Int).Mul(new(big.Int).SetUint64(res.Pool.ReserveA), new(big.Int).SetUint64(res.Pool.ReserveB))
			if newK.Cmp(oldK) < 0 {
				rt.Fatalf("k decreased from %s to %s", oldK, newK)
			}
			pool := f.current()
			if got := f.state.account(t, pool.VaultA).Balance; got < pool.ReserveA {
				rt.Fatalf("vault a balance %d below reserve %d", got, pool.ReserveA)
			}
			if got := f.state.account(t, pool.VaultB).Balance; got < pool.ReserveB {
				rt.Fatalf("vault b balance %d below reserve %d", got, pool.ReserveB)
			}
		}
	})
}

func FuzzAmountOut(f *testing.F) {
	f.Add(uint64(100), uint64(1_000), uint64(1_000))
	f.Add(uint64(990), uint64(1_000), uint64(1_000))
	f.Add(^uint64(0), ^uint64(0), ^uint64(0))
	f.Add(uint64(0), uint64(0), uint64(5))
	f.Fuzz(func(t *testing.T, amountIn, reserveIn, reserveOut uint64) {
		got, err := AmountOut(amountIn, reserveIn, reserveOut)
		if err != nil {
			t.Fatalf("AmountOut: %v", err)
		}
		denominator := new(big.Int).Add(new(big.Int).SetUint64(reserveIn), new(big.Int).SetUint64(amountIn))
		if denominator.Sign() == 0 {
			if got != 0 {
				t.Fatalf("zero denominator gave %d", got)
			}
			return
		}
		want := new(big.Int).Mul(new(big.Int).SetUint64(amountIn), new(big.Int).SetUint64(reserveOut))
		want.Quo(want, denominator)
		if want.Uint64() != got {
			t.Fatalf("AmountOut(%d, %d, %d) = %d, want %s", amountIn, reserveIn, reserveOut, got, want)
		}
		if reserveIn > 0 && reserveOut > 0 && got >= reserveOut {
			t.Fatalf("output reached reserve")
		}
	})
}
