// Package amm implements constant-product pools: creation, deposits and swaps
// against recorded reserves, with custody delegated to a ledger.
package amm

import (
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"ammEngine/internal/ledger"
	"ammEngine/internal/model"
)

// Ledger is the custody surface the engine moves assets through.
type Ledger interface {
	Asset(id solana.PublicKey) (model.Asset, error)
	Account(id solana.PublicKey) (model.Account, error)
	Transfer(req ledger.TransferRequest) error
}

// PoolReader loads pool records.
type PoolReader interface {
	Pool(address solana.PublicKey) (model.Pool, bool, error)
}

// Txn is the atomic unit an operation runs in. Writes, transfers and emitted
// events become visible together or not at all.
type Txn interface {
	PoolReader
	PutPool(pool model.Pool) error
	Ledger() Ledger
	Emit(pool model.Pool, event model.Event)
}

// Config holds engine settings.
type Config struct {
	ProgramID solana.PublicKey
	// StrictFeeRate rejects pools whose fee rate exceeds FeeDenominator.
	StrictFeeRate bool
}

// Engine runs pool operations inside host transactions.
type Engine struct {
	cfg     Config
	metrics *Metrics
	logger  *zap.Logger
}

func NewEngine(cfg Config, metrics *Metrics, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, metrics: metrics, logger: logger}
}

func (e *Engine) ProgramID() solana.PublicKey {
	return e.cfg.ProgramID
}

// PoolAddress derives the address of the pool for an asset pair.
func (e *Engine) PoolAddress(assetA, assetB solana.PublicKey) (solana.PublicKey, uint8, error) {
	return DerivePoolAddress(e.cfg.ProgramID, assetA, assetB)
}

func (e *Engine) loadPool(tx PoolReader, address solana.PublicKey) (model.Pool, error) {
	pool, ok, err := tx.Pool(address)
	if err != nil {
		return model.Pool{}, err
	}
	if !ok {
		return model.Pool{}, ErrPoolNotFound.Wrapf("pool %s", address)
	}
	return pool, nil
}

// poolAuthority is the capability that moves funds out of the pool's vaults.
func (e *Engine) poolAuthority(pool model.Pool) ledger.Authority {
	return ledger.NewPoolAuthority(e.cfg.ProgramID, PoolSeeds(pool.AssetA, pool.AssetB), pool.Nonce)
}

func decimals(l Ledger, asset solana.PublicKey) (uint8, error) {
	a, err := l.Asset(asset)
	if err != nil {
		return 0, err
	}
	return a.Decimals, nil
}
