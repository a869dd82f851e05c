// Package ledger is the custody service pools move assets through. It keeps
// asset registrations and per-owner balances in a key-value store supplied by
// the host transaction, so transfers commit or roll back with the operation
// that requested them.
package ledger

import (
	"fmt"

	smath "github.com/ava-labs/avalanchego/utils/math"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"ammEngine/internal/codec"
	"ammEngine/internal/model"
)

const (
	assetRecord   = "Asset"
	accountRecord = "Account"
)

var (
	assetPrefix   = []byte("ledger/asset/")
	accountPrefix = []byte("ledger/account/")
)

// KV is the transactional store the ledger reads and writes. Get returns a nil
// slice and no error for a missing key.
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
}

// TransferRequest is a checked transfer between two accounts of the same asset.
type TransferRequest struct {
	From      solana.PublicKey
	To        solana.PublicKey
	Asset     solana.PublicKey
	Amount    uint64
	Authority Authority
	Decimals  uint8
}

// Ledger executes custody operations against one host transaction.
type Ledger struct {
	kv        KV
	programID solana.PublicKey
	hooks     []Hook
	logger    *zap.Logger
}

func New(kv KV, programID solana.PublicKey, logger *zap.Logger, hooks ...Hook) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{kv: kv, programID: programID, hooks: hooks, logger: logger}
}

// AssociatedAccount returns the canonical account id for (owner, asset).
func AssociatedAccount(programID, owner, asset solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{owner.Bytes(), asset.Bytes()}, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive account for %s/%s: %w", owner, asset, err)
	}
	return addr, nil
}

// AssociatedAccount returns the canonical account id for (owner, asset) under
// this ledger's program.
func (l *Ledger) AssociatedAccount(owner, asset solana.PublicKey) (solana.PublicKey, error) {
	return AssociatedAccount(l.programID, owner, asset)
}

func (l *Ledger) RegisterAsset(id solana.PublicKey, decimals uint8) (model.Asset, error) {
	existing, err := l.kv.Get(recordKey(assetPrefix, id))
	if err != nil {
		return model.Asset{}, fmt.Errorf("load asset %s: %w", id, err)
	}
	if existing != nil {
		return model.Asset{}, ErrAssetExists.Wrapf("asset %s", id)
	}
	asset := model.Asset{ID: id, Decimals: decimals}
	if err := l.put(assetPrefix, assetRecord, id, &asset); err != nil {
		return model.Asset{}, err
	}
	l.logger.Debug("asset registered", zap.String("asset", id.String()), zap.Uint8("decimals", decimals))
	return asset, nil
}

func (l *Ledger) Asset(id solana.PublicKey) (model.Asset, error) {
	var asset model.Asset
	found, err := l.get(assetPrefix, assetRecord, id, &asset)
	if err != nil {
		return model.Asset{}, err
	}
	if !found {
		return model.Asset{}, ErrAssetNotFound.Wrapf("asset %s", id)
	}
	asset.ID = id
	return asset, nil
}

// OpenAccount opens the associated account of owner for asset.
func (l *Ledger) OpenAccount(owner, asset solana.PublicKey) (model.Account, error) {
	if _, err := l.Asset(asset); err != nil {
		return model.Account{}, err
	}
	id, err := AssociatedAccount(l.programID, owner, asset)
	if err != nil {
		return model.Account{}, err
	}
	existing, err := l.kv.Get(recordKey(accountPrefix, id))
	if err != nil {
		return model.Account{}, fmt.Errorf("load account %s: %w", id, err)
	}
	if existing != nil {
		return model.Account{}, ErrAccountExists.Wrapf("account %s", id)
	}
	account := model.Account{ID: id, Owner: owner, Asset: asset}
	if err := l.putAccount(account); err != nil {
		return model.Account{}, err
	}
	l.logger.Debug("account opened",
		zap.String("account", id.String()),
		zap.String("owner", owner.String()),
		zap.String("asset", asset.String()),
	)
	return account, nil
}

func (l *Ledger) Account(id solana.PublicKey) (model.Account, error) {
	var account model.Account
	found, err := l.get(accountPrefix, accountRecord, id, &account)
	if err != nil {
		return model.Account{}, err
	}
	if !found {
		return model.Account{}, ErrAccountNotFound.Wrapf("account %s", id)
	}
	account.ID = id
	return account, nil
}

// Mint credits amount to an account out of thin air.
func (l *Ledger) Mint(id solana.PublicKey, amount uint64) (model.Account, error) {
	account, err := l.Account(id)
	if err != nil {
		return model.Account{}, err
	}
	balance, err := smath.Add64(account.Balance, amount)
	if err != nil {
		return model.Account{}, ErrBalanceOverflow.Wrapf("mint %d to %s", amount, id)
	}
	account.Balance = balance
	if err := l.putAccount(account); err != nil {
		return model.Account{}, err
	}
	return account, nil
}

// Transfer moves req.Amount between two accounts after checking existence,
// asset and decimals agreement, authority over the source, every hook, and
// both balances.
func (l *Ledger) Transfer(req TransferRequest) error {
	asset, err := l.Asset(req.Asset)
	if err != nil {
		return err
	}
	if asset.Decimals != req.Decimals {
		return ErrDecimalsMismatch.Wrapf("asset %s has %d decimals, got %d", asset.ID, asset.Decimals, req.Decimals)
	}
	from, err := l.Account(req.From)
	if err != nil {
		return err
	}
	to, err := l.Account(req.To)
	if err != nil {
		return err
	}
	if !from.Asset.Equals(req.Asset) {
		return ErrAssetMismatch.Wrapf("source %s holds %s", from.ID, from.Asset)
	}
	if !to.Asset.Equals(req.Asset) {
		return ErrAssetMismatch.Wrapf("destination %s holds %s", to.ID, to.Asset)
	}
	if req.Authority == nil || !req.Authority.Controls(from.Owner) {
		return ErrUnauthorized.Wrapf("source %s owned by %s", from.ID, from.Owner)
	}
	for _, h := range l.hooks {
		if err := h.Validate(req, asset, from, to); err != nil {
			return err
		}
	}

	debited, err := smath.Sub(from.Balance, req.Amount)
	if err != nil {
		return ErrInsufficientBalance.Wrapf("source %s has %d, need %d", from.ID, from.Balance, req.Amount)
	}
	if from.ID.Equals(to.ID) {
		return nil
	}
	credited, err := smath.Add64(to.Balance, req.Amount)
	if err != nil {
		return ErrBalanceOverflow.Wrapf("destination %s", to.ID)
	}
	from.Balance = debited
	to.Balance = credited
	if err := l.putAccount(from); err != nil {
		return err
	}
	if err := l.putAccount(to); err != nil {
		return err
	}

	l.logger.Debug("transfer",
		zap.String("from", from.ID.String()),
		zap.String("to", to.ID.String()),
		zap.String("asset", asset.ID.String()),
		zap.Uint64("amount", req.Amount),
		zap.String("authority", req.Authority.String()),
	)
	return nil
}

func (l *Ledger) putAccount(account model.Account) error {
	return l.put(accountPrefix, accountRecord, account.ID, &account)
}

func (l *Ledger) put(prefix []byte, name string, id solana.PublicKey, v interface{}) error {
	data, err := codec.Encode(name, v)
	if err != nil {
		return err
	}
	if err := l.kv.Set(recordKey(prefix, id), data); err != nil {
		return fmt.Errorf("store %s %s: %w", name, id, err)
	}
	return nil
}

func (l *Ledger) get(prefix []byte, name string, id solana.PublicKey, v interface{}) (bool, error) {
	data, err := l.kv.Get(recordKey(prefix, id))
	if err != nil {
		return false, fmt.Errorf("load %s %s: %w", name, id, err)
	}
	if data == nil {
		return false, nil
	}
	if err := codec.Decode(name, data, v); err != nil {
		return false, err
	}
	return true, nil
}

func recordKey(prefix []byte, id solana.PublicKey) []byte {
	key := make([]byte, 0, len(prefix)+solana.PublicKeyLength)
	key = append(key, prefix...)
	return append(key, id.Bytes()...)
}
