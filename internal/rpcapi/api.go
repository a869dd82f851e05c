// Package rpcapi exposes pool and ledger operations over JSON-RPC.
package rpcapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"ammEngine/internal/amm"
	"ammEngine/internal/ledger"
	"ammEngine/internal/model"
	"ammEngine/internal/runtime"
)

// API is registered under the amm namespace.
type API struct {
	host          *runtime.Host
	engine        *amm.Engine
	ledgerProgram solana.PublicKey
	logger        *zap.Logger
}

func NewAPI(host *runtime.Host, engine *amm.Engine, ledgerProgram solana.PublicKey, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{host: host, engine: engine, ledgerProgram: ledgerProgram, logger: logger}
}

// NewServer returns a JSON-RPC server with api registered.
func NewServer(api *API) (*rpc.Server, error) {
	srv := rpc.NewServer()
	if err := srv.RegisterName(Namespace, api); err != nil {
		return nil, fmt.Errorf("register %s api: %w", Namespace, err)
	}
	return srv, nil
}

func (a *API) RegisterAsset(ctx context.Context, args RegisterAssetArgs) (*model.Asset, error) {
	id, err := keyOrRandom(args.ID)
	if err != nil {
		return nil, invalidParams(err)
	}
	var asset model.Asset
	err = a.host.Execute(ctx, id, func(tx *runtime.Tx) error {
		asset, err = tx.Custody().RegisterAsset(id, args.Decimals)
		return err
	})
	if err != nil {
		return nil, wrapError(err)
	}
	return &asset, nil
}

func (a *API) Asset(ctx context.Context, id string) (*model.Asset, error) {
	key, err := parseKey("asset", id)
	if err != nil {
		return nil, err
	}
	var asset model.Asset
	err = a.host.View(ctx, func(tx *runtime.Tx) error {
		asset, err = tx.Custody().Asset(key)
		return err
	})
	if err != nil {
		return nil, wrapError(err)
	}
	return &asset, nil
}

func (a *API) OpenAccount(ctx context.Context, args OpenAccountArgs) (*model.Account, error) {
	owner, err := parseKey("owner", args.Owner)
	if err != nil {
		return nil, err
	}
	asset, err := parseKey("asset", args.Asset)
	if err != nil {
		return nil, err
	}
	id, err := ledger.AssociatedAccount(a.ledgerProgram, owner, asset)
	if err != nil {
		return nil, wrapError(err)
	}
	var account model.Account
	err = a.host.Execute(ctx, id, func(tx *runtime.Tx) error {
		account, err = tx.Custody().OpenAccount(owner, asset)
		return err
	})
	if err != nil {
		return nil, wrapError(err)
	}
	return &account, nil
}

func (a *API) Account(ctx context.Context, id string) (*model.Account, error) {
	key, err := parseKey("account", id)
	if err != nil {
		return nil, err
	}
	var account model.Account
	err = a.host.View(ctx, func(tx *runtime.Tx) error {
		account, err = tx.Custody().Account(key)
		return err
	})
	if err != nil {
		return nil, wrapError(err)
	}
	return &account, nil
}

// AssociatedAccount returns the canonical account id of owner for asset.
func (a *API) AssociatedAccount(owner, asset string) (string, error) {
	o, err := parseKey("owner", owner)
	if err != nil {
		return "", err
	}
	as, err := parseKey("asset", asset)
	if err != nil {
		return "", err
	}
	id, err := ledger.AssociatedAccount(a.ledgerProgram, o, as)
	if err != nil {
		return "", wrapError(err)
	}
	return id.String(), nil
}

func (a *API) Mint(ctx context.Context, args MintArgs) (*model.Account, error) {
	id, err := parseKey("account", args.Account)
	if err != nil {
		return nil, err
	}
	var account model.Account
	err = a.host.Execute(ctx, id, func(tx *runtime.Tx) error {
		account, err = tx.Custody().Mint(id, args.Amount)
		return err
	})
	if err != nil {
		return nil, wrapError(err)
	}
	return &account, nil
}

func (a *API) DerivePool(ctx context.Context, assetA, assetB string) (*DerivedPool, error) {
	ka, err := parseKey("asset_a", assetA)
	if err != nil {
		return nil, err
	}
	kb, err := parseKey("asset_b", assetB)
	if err != nil {
		return nil, err
	}
	addr, nonce, err := a.engine.PoolAddress(ka, kb)
	if err != nil {
		return nil, wrapError(err)
	}
	var exists bool
	err = a.host.View(ctx, func(tx *runtime.Tx) error {
		_, exists, err = tx.Pool(addr)
		return err
	})
	if err != nil {
		return nil, wrapError(err)
	}
	return &DerivedPool{Address: addr.String(), Nonce: nonce, Exists: exists}, nil
}

func (a *API) CreatePool(ctx context.Context, args CreatePoolArgs) (*model.Pool, error) {
	req := amm.CreatePoolRequest{FeeRate: args.FeeRate}
	var err error
	if req.Authority, err = parseKey("authority", args.Authority); err != nil {
		return nil, err
	}
	if req.AssetA, err = parseKey("asset_a", args.AssetA); err != nil {
		return nil, err
	}
	if req.AssetB, err = parseKey("asset_b", args.AssetB); err != nil {
		return nil, err
	}
	if req.VaultA, err = optionalKey("vault_a", args.VaultA); err != nil {
		return nil, err
	}
	if req.VaultB, err = optionalKey("vault_b", args.VaultB); err != nil {
		return nil, err
	}
	addr, _, err := a.engine.PoolAddress(req.AssetA, req.AssetB)
	if err != nil {
		return nil, wrapError(err)
	}

	var pool model.Pool
	err = a.host.Execute(ctx, addr, func(tx *runtime.Tx) error {
		r := req
		if r.VaultA.IsZero() {
			if r.VaultA, err = openVault(tx, addr, r.AssetA); err != nil {
				return err
			}
		}
		if r.VaultB.IsZero() {
			if r.VaultB, err = openVault(tx, addr, r.AssetB); err != nil {
				return err
			}
		}
		pool, err = a.engine.CreatePool(tx, r)
		return err
	})
	if err != nil {
		return nil, wrapError(err)
	}
	return &pool, nil
}

// openVault opens the pool's associated account for asset unless it exists.
func openVault(tx *runtime.Tx, pool, asset solana.PublicKey) (solana.PublicKey, error) {
	account, err := tx.Custody().OpenAccount(pool, asset)
	if err == nil {
		return account.ID, nil
	}
	if !errors.Is(err, ledger.ErrAccountExists) {
		return solana.PublicKey{}, err
	}
	return tx.Custody().AssociatedAccount(pool, asset)
}

func (a *API) Pool(ctx context.Context, address string) (*model.Pool, error) {
	addr, err := parseKey("pool", address)
	if err != nil {
		return nil, err
	}
	var pool model.Pool
	var ok bool
	err = a.host.View(ctx, func(tx *runtime.Tx) error {
		pool, ok, err = tx.Pool(addr)
		return err
	})
	if err != nil {
		return nil, wrapError(err)
	}
	if !ok {
		return nil, wrapError(amm.ErrPoolNotFound.Wrapf("pool %s", addr))
	}
	return &pool, nil
}

func (a *API) Pools(ctx context.Context) ([]model.Pool, error) {
	var pools []model.Pool
	err := a.host.View(ctx, func(tx *runtime.Tx) error {
		var err error
		pools, err = tx.Pools()
		return err
	})
	if err != nil {
		return nil, wrapError(err)
	}
	return pools, nil
}

func (a *API) AddLiquidity(ctx context.Context, args AddLiquidityArgs) (*model.Pool, error) {
	req := amm.AddLiquidityRequest{AmountA: args.AmountA, AmountB: args.AmountB}
	var err error
	if req.Pool, err = parseKey("pool", args.Pool); err != nil {
		return nil, err
	}
	if req.User, err = parseKey("user", args.User); err != nil {
		return nil, err
	}
	if req.UserAccountA, err = optionalKey("user_account_a", args.UserAccountA); err != nil {
		return nil, err
	}
	if req.UserAccountB, err = optionalKey("user_account_b", args.UserAccountB); err != nil {
		return nil, err
	}

	var pool model.Pool
	err = a.host.Execute(ctx, req.Pool, func(tx *runtime.Tx) error {
		r := req
		if r.UserAccountA, r.UserAccountB, err = a.userAccounts(tx, r.Pool, r.User, r.UserAccountA, r.UserAccountB); err != nil {
			return err
		}
		pool, err = a.engine.AddLiquidity(tx, r)
		return err
	})
	if err != nil {
		return nil, wrapError(err)
	}
	return &pool, nil
}

func (a *API) Swap(ctx context.Context, args SwapArgs) (*SwapResult, error) {
	req := amm.SwapRequest{
		AmountIn:         args.AmountIn,
		MinimumAmountOut: args.MinimumAmountOut,
		Direction:        model.Direction(args.AToB),
	}
	var err error
	if req.Pool, err = parseKey("pool", args.Pool); err != nil {
		return nil, err
	}
	if req.User, err = parseKey("user", args.User); err != nil {
		return nil, err
	}
	if req.UserAccountA, err = optionalKey("user_account_a", args.UserAccountA); err != nil {
		return nil, err
	}
	if req.UserAccountB, err = optionalKey("user_account_b", args.UserAccountB); err != nil {
		return nil, err
	}

	var res amm.SwapResult
	err = a.host.Execute(ctx, req.Pool, func(tx *runtime.Tx) error {
		r := req
		if r.UserAccountA, r.UserAccountB, err = a.userAccounts(tx, r.Pool, r.User, r.UserAccountA, r.UserAccountB); err != nil {
			return err
		}
		res, err = a.engine.Swap(tx, r)
		return err
	})
	if err != nil {
		a.logger.Debug("swap rejected", zap.String("pool", args.Pool), zap.Error(err))
		return nil, wrapError(err)
	}
	return &SwapResult{Pool: res.Pool, Quote: res.Quote}, nil
}

// userAccounts fills missing user accounts with the user's associated accounts
// for the pool's assets.
func (a *API) userAccounts(tx *runtime.Tx, poolAddr, user, accA, accB solana.PublicKey) (solana.PublicKey, solana.PublicKey, error) {
	if !accA.IsZero() && !accB.IsZero() {
		return accA, accB, nil
	}
	pool, ok, err := tx.Pool(poolAddr)
	if err != nil {
		return accA, accB, err
	}
	if !ok {
		return accA, accB, amm.ErrPoolNotFound.Wrapf("pool %s", poolAddr)
	}
	if accA.IsZero() {
		if accA, err = tx.Custody().AssociatedAccount(user, pool.AssetA); err != nil {
			return accA, accB, err
		}
	}
	if accB.IsZero() {
		if accB, err = tx.Custody().AssociatedAccount(user, pool.AssetB); err != nil {
			return accA, accB, err
		}
	}
	return accA, accB, nil
}

func (a *API) Quote(ctx context.Context, args QuoteArgs) (*amm.Quote, error) {
	addr, err := parseKey("pool", args.Pool)
	if err != nil {
		return nil, err
	}
	var q amm.Quote
	err = a.host.View(ctx, func(tx *runtime.Tx) error {
		q, err = a.engine.Quote(tx, addr, args.AmountIn, model.Direction(args.AToB))
		return err
	})
	if err != nil {
		return nil, wrapError(err)
	}
	return &q, nil
}

func (a *API) Events(ctx context.Context, args EventsArgs) ([]model.EventRecord, error) {
	filter := runtime.EventFilter{FromSeq: args.From, ToSeq: args.To, Limit: args.Limit}
	if filter.Limit <= 0 || filter.Limit > MaxEventsPerCall {
		filter.Limit = MaxEventsPerCall
	}
	if len(args.Pools) > 0 {
		filter.Pools = make(map[string]struct{}, len(args.Pools))
		for _, p := range args.Pools {
			key, err := parseKey("pools", p)
			if err != nil {
				return nil, err
			}
			filter.Pools[key.String()] = struct{}{}
		}
	}
	records, err := a.host.Events(ctx, filter)
	if err != nil {
		return nil, wrapError(err)
	}
	if records == nil {
		records = []model.EventRecord{}
	}
	return records, nil
}

func (a *API) LatestSeq(ctx context.Context) (uint64, error) {
	seq, err := a.host.LatestSeq(ctx)
	if err != nil {
		return 0, wrapError(err)
	}
	return seq, nil
}

func parseKey(field, value string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, invalidParams(fmt.Errorf("invalid %s %q: %w", field, value, err))
	}
	return key, nil
}

func optionalKey(field, value string) (solana.PublicKey, error) {
	if value == "" {
		return solana.PublicKey{}, nil
	}
	return parseKey(field, value)
}

func keyOrRandom(value string) (solana.PublicKey, error) {
	if value != "" {
		key, err := solana.PublicKeyFromBase58(value)
		if err != nil {
			return solana.PublicKey{}, fmt.Errorf("invalid id %q: %w", value, err)
		}
		return key, nil
	}
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("generate id: %w", err)
	}
	return key.PublicKey(), nil
}
