// Package client calls a running ammd server over JSON-RPC.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/rpc"

	"ammEngine/internal/amm"
	"ammEngine/internal/model"
	"ammEngine/internal/rpcapi"
)

// Client wraps a go-ethereum RPC client with typed amm_* calls.
type Client struct {
	rpcClient *rpc.Client

	mu            sync.RWMutex
	decimalsCache map[string]uint8
}

// NewClient dials the server at rpcURL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return NewFromRPC(rpcClient), nil
}

// NewFromRPC wraps an existing RPC client.
func NewFromRPC(rpcClient *rpc.Client) *Client {
	return &Client{
		rpcClient:     rpcClient,
		decimalsCache: make(map[string]uint8),
	}
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

func (c *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	err := c.rpcClient.CallContext(ctx, result, rpcapi.Namespace+"_"+method, args...)
	return convertError(err)
}

func (c *Client) RegisterAsset(ctx context.Context, args rpcapi.RegisterAssetArgs) (*model.Asset, error) {
	var out model.Asset
	if err := c.call(ctx, &out, "registerAsset", args); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Asset(ctx context.Context, id string) (*model.Asset, error) {
	var out model.Asset
	if err := c.call(ctx, &out, "asset", id); err != nil {
		return nil, err
	}
	return &out, nil
}

// AssetDecimals returns the decimals of an asset, using an in-memory cache.
func (c *Client) AssetDecimals(ctx context.Context, id string) (uint8, error) {
	c.mu.RLock()
	dec, ok := c.decimalsCache[id]
	c.mu.RUnlock()
	if ok {
		return dec, nil
	}

	asset, err := c.Asset(ctx, id)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	c.decimalsCache[id] = asset.Decimals
	c.mu.Unlock()
	return asset.Decimals, nil
}

func (c *Client) OpenAccount(ctx context.Context, args rpcapi.OpenAccountArgs) (*model.Account, error) {
	var out model.Account
	if err := c.call(ctx, &out, "openAccount", args); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Account(ctx context.Context, id string) (*model.Account, error) {
	var out model.Account
	if err := c.call(ctx, &out, "account", id); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AssociatedAccount(ctx context.Context, owner, asset string) (string, error) {
	var out string
	if err := c.call(ctx, &out, "associatedAccount", owner, asset); err != nil {
		return "", err
	}
	return out, nil
}

func (c *Client) Mint(ctx context.Context, args rpcapi.MintArgs) (*model.Account, error) {
	var out model.Account
	if err := c.call(ctx, &out, "mint", args); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DerivePool(ctx context.Context, assetA, assetB string) (*rpcapi.DerivedPool, error) {
	var out rpcapi.DerivedPool
	if err := c.call(ctx, &out, "derivePool", assetA, assetB); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreatePool(ctx context.Context, args rpcapi.CreatePoolArgs) (*model.Pool, error) {
	var out model.Pool
	if err := c.call(ctx, &out, "createPool", args); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Pool(ctx context.Context, address string) (*model.Pool, error) {
	var out model.Pool
	if err := c.call(ctx, &out, "pool", address); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Pools(ctx context.Context) ([]model.Pool, error) {
	var out []model.Pool
	if err := c.call(ctx, &out, "pools"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddLiquidity(ctx context.Context, args rpcapi.AddLiquidityArgs) (*model.Pool, error) {
	var out model.Pool
	if err := c.call(ctx, &out, "addLiquidity", args); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Swap(ctx context.Context, args rpcapi.SwapArgs) (*rpcapi.SwapResult, error) {
	var out rpcapi.SwapResult
	if err := c.call(ctx, &out, "swap", args); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Quote(ctx context.Context, args rpcapi.QuoteArgs) (*amm.Quote, error) {
	var out amm.Quote
	if err := c.call(ctx, &out, "quote", args); err != nil {
		return nil, err
	}
	return &out, nil
}

// LatestSeq returns the highest committed event sequence.
func (c *Client) LatestSeq(ctx context.Context) (uint64, error) {
	var out uint64
	if err := c.call(ctx, &out, "latestSeq"); err != nil {
		return 0, err
	}
	return out, nil
}

// Events returns records with from <= seq <= to for the given pools.
func (c *Client) Events(ctx context.Context, from, to uint64, pools []string) ([]model.EventRecord, error) {
	var out []model.EventRecord
	args := rpcapi.EventsArgs{From: from, To: to, Pools: pools}
	if err := c.call(ctx, &out, "events", args); err != nil {
		return nil, err
	}
	return out, nil
}

// RemoteError is an error returned by the server. It matches registered
// errors by codespace and code, so errors.Is works across the wire.
type RemoteError struct {
	Message string
	Info    rpcapi.ErrorInfo
}

func (e *RemoteError) Error() string { return e.Message }

func (e *RemoteError) Is(target error) bool {
	reg, ok := target.(*errorsmod.Error)
	if !ok {
		return false
	}
	for info := &e.Info; info != nil; info = info.Cause {
		if info.Codespace == reg.Codespace() && info.Code == reg.ABCICode() {
			return true
		}
	}
	return false
}

func convertError(err error) error {
	if err == nil {
		return nil
	}
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return err
	}
	raw, mErr := json.Marshal(dataErr.ErrorData())
	if mErr != nil {
		return err
	}
	var info rpcapi.ErrorInfo
	if uErr := json.Unmarshal(raw, &info); uErr != nil || info.Codespace == "" {
		return err
	}
	return &RemoteError{Message: err.Error(), Info: info}
}

// Describe renders an error with its registered code when it has one.
func Describe(err error) string {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return fmt.Sprintf("%s (%s/%d)", remote.Message, remote.Info.Codespace, remote.Info.Code)
	}
	return err.Error()
}
