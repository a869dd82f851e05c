package rpcapi_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"ammEngine/internal/amm"
	"ammEngine/internal/client"
	"ammEngine/internal/events"
	"ammEngine/internal/ledger"
	"ammEngine/internal/model"
	"ammEngine/internal/rpcapi"
	"ammEngine/internal/runtime"
)

var (
	testProgram       = solana.MustPublicKeyFromBase58("8zuw1hrY3T3rPfv61Fko2645cjSq1w3mJgsDXRh4vpW3")
	testLedgerProgram = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
)

func newTestClient(t *testing.T) (*client.Client, *events.Bus) {
	t.Helper()
	bus := events.NewBus(nil)
	host, err := runtime.Open(runtime.Config{
		LedgerProgramID:    testLedgerProgram,
		MaxConflictRetries: 4,
		Hooks:              []ledger.Hook{ledger.AmountRangeHook{MaxWholeUnits: ledger.DefaultMaxWholeUnits}},
	}, bus, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = host.Close() })

	engine := amm.NewEngine(amm.Config{ProgramID: testProgram}, nil, nil)
	srv, err := rpcapi.NewServer(rpcapi.NewAPI(host, engine, testLedgerProgram, nil))
	require.NoError(t, err)
	t.Cleanup(srv.Stop)

	c := client.NewFromRPC(rpc.DialInProc(srv))
	t.Cleanup(c.Close)
	return c, bus
}

func newUser(t *testing.T) string {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key.PublicKey().String()
}

type market struct {
	pool   string
	user   string
	assetA string
	assetB string
}

func setupMarket(t *testing.T, c *client.Client, feeRate uint64) market {
	t.Helper()
	ctx := context.Background()
	m := market{user: newUser(t)}

	for _, dst := range []*string{&m.assetA, &m.assetB} {
		asset, err := c.RegisterAsset(ctx, rpcapi.RegisterAssetArgs{Decimals: 6})
		require.NoError(t, err)
		*dst = asset.ID.String()
		acc, err := c.OpenAccount(ctx, rpcapi.OpenAccountArgs{Owner: m.user, Asset: *dst})
		require.NoError(t, err)
		_, err = c.Mint(ctx, rpcapi.MintArgs{Account: acc.ID.String(), Amount: 1_000_000})
		require.NoError(t, err)
	}

	pool, err := c.CreatePool(ctx, rpcapi.CreatePoolArgs{
		Authority: m.user, AssetA: m.assetA, AssetB: m.assetB, FeeRate: feeRate,
	})
	require.NoError(t, err)
	m.pool = pool.Address.String()

	_, err = c.AddLiquidity(ctx, rpcapi.AddLiquidityArgs{Pool: m.pool, User: m.user, AmountA: 1_000, AmountB: 1_000})
	require.NoError(t, err)
	return m
}

func TestSwapOverRPC(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	m := setupMarket(t, c, 30)

	q, err := c.Quote(ctx, rpcapi.QuoteArgs{Pool: m.pool, AmountIn: 100, AToB: true})
	require.NoError(t, err)
	require.Equal(t, uint64(90), q.AmountOut)

	res, err := c.Swap(ctx, rpcapi.SwapArgs{
		Pool: m.pool, User: m.user, AmountIn: 100, MinimumAmountOut: amm.MinimumOut(q.AmountOut, 50), AToB: true,
	})
	require.NoError(t, err)
	require.Equal(t, uint64(1_100), res.Pool.ReserveA)
	require.Equal(t, uint64(910), res.Pool.ReserveB)

	pool, err := c.Pool(ctx, m.pool)
	require.NoError(t, err)
	require.Equal(t, res.Pool, *pool)

	accB, err := c.AssociatedAccount(ctx, m.user, m.assetB)
	require.NoError(t, err)
	acc, err := c.Account(ctx, accB)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000-1_000+90), acc.Balance)

	derived, err := c.DerivePool(ctx, m.assetB, m.assetA)
	require.NoError(t, err)
	require.Equal(t, m.pool, derived.Address)
	require.True(t, derived.Exists)
}

func TestErrorsCrossTheWire(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	m := setupMarket(t, c, 30)

	_, err := c.Swap(ctx, rpcapi.SwapArgs{Pool: m.pool, User: m.user, AmountIn: 100, MinimumAmountOut: 91, AToB: true})
	require.True(t, errors.Is(err, amm.ErrSlippageExceeded), "got %v", err)
	require.Contains(t, client.Describe(err), "amm/2")

	_, err = c.CreatePool(ctx, rpcapi.CreatePoolArgs{Authority: m.user, AssetA: m.assetB, AssetB: m.assetA})
	require.True(t, errors.Is(err, amm.ErrAlreadyExists), "got %v", err)

	// the transfer hook rejects zero-amount transfers
	_, err = c.Swap(ctx, rpcapi.SwapArgs{Pool: m.pool, User: m.user, AmountIn: 0, AToB: true})
	require.True(t, errors.Is(err, amm.ErrTransferFailed), "got %v", err)
	require.True(t, errors.Is(err, ledger.ErrInvalidAmount), "got %v", err)

	_, err = c.Pool(ctx, newUser(t))
	require.True(t, errors.Is(err, amm.ErrPoolNotFound), "got %v", err)

	_, err = c.Pool(ctx, "not-a-key")
	require.Error(t, err)

	pool, err := c.Pool(ctx, m.pool)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000), pool.ReserveA)
}

func TestEventsOverRPC(t *testing.T) {
	c, bus := newTestClient(t)
	ctx := context.Background()

	var published []model.EventRecord
	require.NoError(t, bus.Subscribe(events.TopicAll, func(r model.EventRecord) {
		published = append(published, r)
	}))

	m := setupMarket(t, c, 30)
	_, err := c.Swap(ctx, rpcapi.SwapArgs{Pool: m.pool, User: m.user, AmountIn: 50, AToB: false})
	require.NoError(t, err)

	latest, err := c.LatestSeq(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(3), latest)

	records, err := c.Events(ctx, 1, latest, []string{m.pool})
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, published, records)
	require.Equal(t, model.EventSwapExecuted, records[2].EventName)

	none, err := c.Events(ctx, 1, 0, []string{newUser(t)})
	require.NoError(t, err)
	require.Empty(t, none)

	pools, err := c.Pools(ctx)
	require.NoError(t, err)
	require.Len(t, pools, 1)
}

func TestAssetDecimalsCached(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	asset, err := c.RegisterAsset(ctx, rpcapi.RegisterAssetArgs{Decimals: 9})
	require.NoError(t, err)

	dec, err := c.AssetDecimals(ctx, asset.ID.String())
	require.NoError(t, err)
	require.Equal(t, uint8(9), dec)

	_, err = c.RegisterAsset(ctx, rpcapi.RegisterAssetArgs{ID: asset.ID.String(), Decimals: 9})
	require.True(t, errors.Is(err, ledger.ErrAssetExists), "got %v", err)
}
