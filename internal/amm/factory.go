package amm

import (
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"ammEngine/internal/model"
)

// CreatePoolRequest describes a new pool. Vaults must already be open ledger
// accounts owned by the pool address.
type CreatePoolRequest struct {
	Authority solana.PublicKey
	AssetA    solana.PublicKey
	AssetB    solana.PublicKey
	VaultA    solana.PublicKey
	VaultB    solana.PublicKey
	FeeRate   uint64
}

// CreatePool records an empty pool for the pair and emits PoolCreated.
func (e *Engine) CreatePool(tx Txn, req CreatePoolRequest) (model.Pool, error) {
	if req.AssetA.Equals(req.AssetB) {
		return model.Pool{}, ErrInvalidPair.Wrapf("asset %s on both sides", req.AssetA)
	}
	if e.cfg.StrictFeeRate && req.FeeRate > FeeDenominator {
		return model.Pool{}, ErrInvalidFeeRate.Wrapf("%d bps exceeds %d", req.FeeRate, FeeDenominator)
	}

	address, nonce, err := e.PoolAddress(req.AssetA, req.AssetB)
	if err != nil {
		return model.Pool{}, err
	}
	_, exists, err := tx.Pool(address)
	if err != nil {
		return model.Pool{}, err
	}
	if exists {
		return model.Pool{}, ErrAlreadyExists.Wrapf("pool %s for %s/%s", address, req.AssetA, req.AssetB)
	}

	l := tx.Ledger()
	if err := checkVault(l, req.VaultA, address, req.AssetA); err != nil {
		return model.Pool{}, err
	}
	if err := checkVault(l, req.VaultB, address, req.AssetB); err != nil {
		return model.Pool{}, err
	}

	pool := model.Pool{
		Address:   address,
		Authority: req.Authority,
		AssetA:    req.AssetA,
		AssetB:    req.AssetB,
		VaultA:    req.VaultA,
		VaultB:    req.VaultB,
		FeeRate:   req.FeeRate,
		Nonce:     nonce,
	}
	if err := tx.PutPool(pool); err != nil {
		return model.Pool{}, err
	}
	tx.Emit(pool, model.PoolCreatedEvent{
		Pool:    address,
		AssetA:  pool.AssetA,
		AssetB:  pool.AssetB,
		FeeRate: pool.FeeRate,
	})

	if e.metrics != nil {
		e.metrics.PoolsCreated.Inc()
	}
	e.logger.Info("pool created",
		zap.String("pool", address.String()),
		zap.String("asset_a", pool.AssetA.String()),
		zap.String("asset_b", pool.AssetB.String()),
		zap.Uint64("fee_rate", pool.FeeRate),
	)
	return pool, nil
}

func checkVault(l Ledger, vault, pool, asset solana.PublicKey) error {
	account, err := l.Account(vault)
	if err != nil {
		return ErrInvalidVault.Wrapf("vault %s: %v", vault, err)
	}
	if !account.Owner.Equals(pool) {
		return ErrInvalidVault.Wrapf("vault %s owned by %s, not pool %s", vault, account.Owner, pool)
	}
	if !account.Asset.Equals(asset) {
		return ErrInvalidVault.Wrapf("vault %s holds %s, want %s", vault, account.Asset, asset)
	}
	return nil
}
