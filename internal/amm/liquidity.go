package amm

import (
	smath "github.com/ava-labs/avalanchego/utils/math"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"ammEngine/internal/ledger"
	"ammEngine/internal/model"
)

// AddLiquidityRequest deposits both assets from a user's accounts.
type AddLiquidityRequest struct {
	Pool         solana.PublicKey
	User         solana.PublicKey
	UserAccountA solana.PublicKey
	UserAccountB solana.PublicKey
	AmountA      uint64
	AmountB      uint64
}

// AddLiquidity moves both amounts into the vaults and raises the recorded
// reserves by exactly those amounts. Deposits need not match the pool ratio.
func (e *Engine) AddLiquidity(tx Txn, req AddLiquidityRequest) (model.Pool, error) {
	pool, err := e.loadPool(tx, req.Pool)
	if err != nil {
		return model.Pool{}, err
	}

	l := tx.Ledger()
	user := ledger.UserAuthority(req.User)
	if err := deposit(l, req.UserAccountA, pool.VaultA, pool.AssetA, req.AmountA, user); err != nil {
		return model.Pool{}, transferFailed("deposit asset a", err)
	}
	if err := deposit(l, req.UserAccountB, pool.VaultB, pool.AssetB, req.AmountB, user); err != nil {
		return model.Pool{}, transferFailed("deposit asset b", err)
	}

	reserveA, err := smath.Add64(pool.ReserveA, req.AmountA)
	if err != nil {
		return model.Pool{}, ErrArithmeticOverflow.Wrapf("reserve a %d + %d", pool.ReserveA, req.AmountA)
	}
	reserveB, err := smath.Add64(pool.ReserveB, req.AmountB)
	if err != nil {
		return model.Pool{}, ErrArithmeticOverflow.Wrapf("reserve b %d + %d", pool.ReserveB, req.AmountB)
	}
	pool.ReserveA = reserveA
	pool.ReserveB = reserveB
	if err := tx.PutPool(pool); err != nil {
		return model.Pool{}, err
	}
	tx.Emit(pool, model.LiquidityAddedEvent{
		User:    req.User,
		AmountA: req.AmountA,
		AmountB: req.AmountB,
	})

	if e.metrics != nil {
		addr := pool.Address.String()
		e.metrics.LiquidityAdded.WithLabelValues(addr, pool.AssetA.String()).Add(float64(req.AmountA))
		e.metrics.LiquidityAdded.WithLabelValues(addr, pool.AssetB.String()).Add(float64(req.AmountB))
		e.metrics.recordReserves(addr, pool.AssetA.String(), pool.AssetB.String(), pool.ReserveA, pool.ReserveB)
	}
	e.logger.Debug("liquidity added",
		zap.String("pool", pool.Address.String()),
		zap.String("user", req.User.String()),
		zap.Uint64("amount_a", req.AmountA),
		zap.Uint64("amount_b", req.AmountB),
	)
	return pool, nil
}

func deposit(l Ledger, from, vault, asset solana.PublicKey, amount uint64, auth ledger.Authority) error {
	dec, err := decimals(l, asset)
	if err != nil {
		return err
	}
	return l.Transfer(ledger.TransferRequest{
		From:      from,
		To:        vault,
		Asset:     asset,
		Amount:    amount,
		Authority: auth,
		Decimals:  dec,
	})
}
