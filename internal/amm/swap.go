package amm

import (
	"time"

	smath "github.com/ava-labs/avalanchego/utils/math"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"ammEngine/internal/ledger"
	"ammEngine/internal/model"
)

// SwapRequest sells AmountIn of one pool asset for the other.
type SwapRequest struct {
	Pool             solana.PublicKey
	User             solana.PublicKey
	UserAccountA     solana.PublicKey
	UserAccountB     solana.PublicKey
	AmountIn         uint64
	MinimumAmountOut uint64
	Direction        model.Direction
}

// SwapResult is the pool after a swap and the quote it executed at.
type SwapResult struct {
	Pool  model.Pool
	Quote Quote
}

// Swap prices the trade against recorded reserves, enforces the caller's
// minimum output, settles both legs through the ledger and updates reserves.
func (e *Engine) Swap(tx Txn, req SwapRequest) (SwapResult, error) {
	start := time.Now()
	res, err := e.swap(tx, req)
	if e.metrics != nil {
		e.metrics.SwapLatency.Observe(time.Since(start).Seconds())
		status := "success"
		if err != nil {
			status = "failed"
		}
		e.metrics.SwapsTotal.WithLabelValues(req.Pool.String(), req.Direction.String(), status).Inc()
	}
	if err != nil {
		e.logger.Warn("swap rejected",
			zap.String("pool", req.Pool.String()),
			zap.String("user", req.User.String()),
			zap.Uint64("amount_in", req.AmountIn),
			zap.Uint64("minimum_out", req.MinimumAmountOut),
			zap.Stringer("direction", req.Direction),
			zap.Error(err),
		)
	}
	return res, err
}

func (e *Engine) swap(tx Txn, req SwapRequest) (SwapResult, error) {
	pool, err := e.loadPool(tx, req.Pool)
	if err != nil {
		return SwapResult{}, err
	}
	dir := req.Direction
	reserveIn, reserveOut := pool.Reserves(dir)

	q, err := QuoteSwap(req.AmountIn, reserveIn, reserveOut, pool.FeeRate)
	if err != nil {
		return SwapResult{}, err
	}
	if q.AmountOut < req.MinimumAmountOut {
		return SwapResult{}, ErrSlippageExceeded.Wrapf("expected at least %d, got %d", req.MinimumAmountOut, q.AmountOut)
	}
	if q.AmountOut >= reserveOut {
		return SwapResult{}, ErrInsufficientLiquidity.Wrapf("output %d against reserve %d", q.AmountOut, reserveOut)
	}

	assetIn, assetOut := pool.Assets(dir)
	vaultIn, vaultOut := pool.Vaults(dir)
	userIn, userOut := req.UserAccountA, req.UserAccountB
	if dir == model.BToA {
		userIn, userOut = req.UserAccountB, req.UserAccountA
	}

	l := tx.Ledger()
	if err := deposit(l, userIn, vaultIn, assetIn, req.AmountIn, ledger.UserAuthority(req.User)); err != nil {
		return SwapResult{}, transferFailed("input leg", err)
	}
	if err := deposit(l, vaultOut, userOut, assetOut, q.AmountOut, e.poolAuthority(pool)); err != nil {
		return SwapResult{}, transferFailed("output leg", err)
	}

	newIn, err := smath.Add64(reserveIn, req.AmountIn)
	if err != nil {
		return SwapResult{}, ErrArithmeticOverflow.Wrapf("reserve in %d + %d", reserveIn, req.AmountIn)
	}
	newOut, err := smath.Sub(reserveOut, q.AmountOut)
	if err != nil {
		return SwapResult{}, ErrArithmeticUnderflow.Wrapf("reserve out %d - %d", reserveOut, q.AmountOut)
	}
	if err := checkProduct(reserveIn, reserveOut, newIn, newOut); err != nil {
		return SwapResult{}, err
	}
	if dir == model.AToB {
		pool.ReserveA, pool.ReserveB = newIn, newOut
	} else {
		pool.ReserveB, pool.ReserveA = newIn, newOut
	}
	if err := tx.PutPool(pool); err != nil {
		return SwapResult{}, err
	}
	tx.Emit(pool, model.SwapExecutedEvent{
		User:      req.User,
		AmountIn:  req.AmountIn,
		AmountOut: q.AmountOut,
		Direction: dir,
	})

	if e.metrics != nil {
		addr := pool.Address.String()
		e.metrics.SwapVolume.WithLabelValues(addr, assetIn.String()).Add(float64(req.AmountIn))
		e.metrics.SwapFeesCollected.WithLabelValues(addr, assetIn.String()).Add(float64(q.Fee))
		e.metrics.SwapPriceImpact.Observe(float64(q.PriceImpactBps))
		e.metrics.recordReserves(addr, pool.AssetA.String(), pool.AssetB.String(), pool.ReserveA, pool.ReserveB)
	}
	e.logger.Debug("swap executed",
		zap.String("pool", pool.Address.String()),
		zap.String("user", req.User.String()),
		zap.Stringer("direction", dir),
		zap.Uint64("amount_in", req.AmountIn),
		zap.Uint64("fee", q.Fee),
		zap.Uint64("amount_out", q.AmountOut),
	)
	return SwapResult{Pool: pool, Quote: q}, nil
}

// Quote prices a swap against a pool without executing it. A quote whose
// output would drain the pool fails with ErrInsufficientLiquidity.
func (e *Engine) Quote(tx PoolReader, address solana.PublicKey, amountIn uint64, dir model.Direction) (Quote, error) {
	pool, err := e.loadPool(tx, address)
	if err != nil {
		return Quote{}, err
	}
	reserveIn, reserveOut := pool.Reserves(dir)
	q, err := QuoteSwap(amountIn, reserveIn, reserveOut, pool.FeeRate)
	if err != nil {
		return Quote{}, err
	}
	if q.AmountOut >= reserveOut {
		return q, ErrInsufficientLiquidity.Wrapf("output %d against reserve %d", q.AmountOut, reserveOut)
	}
	return q, nil
}
