package runtime

import (
	"context"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"ammEngine/internal/amm"
	"ammEngine/internal/events"
	"ammEngine/internal/ledger"
	"ammEngine/internal/model"
)

var (
	testProgram       = solana.MustPublicKeyFromBase58("8zuw1hrY3T3rPfv61Fko2645cjSq1w3mJgsDXRh4vpW3")
	testLedgerProgram = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
)

type recorder struct {
	mu      sync.Mutex
	records []model.EventRecord
}

func (r *recorder) Publish(record model.EventRecord) {
	r.mu.Lock()
	r.records = append(r.records, record)
	r.mu.Unlock()
}

func newKey(t *testing.T) solana.PublicKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key.PublicKey()
}

type hostFixture struct {
	host   *Host
	engine *amm.Engine
	bus    *recorder
	pool   solana.PublicKey
	user   solana.PublicKey
	userA  solana.PublicKey
	userB  solana.PublicKey
}

func newHostFixture(t *testing.T, path string) hostFixture {
	t.Helper()
	bus := &recorder{}
	host, err := Open(Config{Path: path, LedgerProgramID: testLedgerProgram, MaxConflictRetries: 8}, bus, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = host.Close() })

	f := hostFixture{
		host:   host,
		engine: amm.NewEngine(amm.Config{ProgramID: testProgram}, nil, nil),
		bus:    bus,
		user:   newKey(t),
	}
	assetA, assetB := newKey(t), newKey(t)
	f.pool, _, err = f.engine.PoolAddress(assetA, assetB)
	require.NoError(t, err)

	ctx := context.Background()
	err = host.Execute(ctx, f.pool, func(tx *Tx) error {
		l := tx.Custody()
		vaults := make([]solana.PublicKey, 0, 2)
		for _, asset := range []solana.PublicKey{assetA, assetB} {
			if _, err := l.RegisterAsset(asset, 6); err != nil {
				return err
			}
			user, err := l.OpenAccount(f.user, asset)
			if err != nil {
				return err
			}
			if _, err := l.Mint(user.ID, 1_000_000); err != nil {
				return err
			}
			if asset == assetA {
				f.userA = user.ID
			} else {
				f.userB = user.ID
			}
			vault, err := l.OpenAccount(f.pool, asset)
			if err != nil {
				return err
			}
			vaults = append(vaults, vault.ID)
		}
		if _, err := f.engine.CreatePool(tx, amm.CreatePoolRequest{
			Authority: f.user, AssetA: assetA, AssetB: assetB,
			VaultA: vaults[0], VaultB: vaults[1], FeeRate: 30,
		}); err != nil {
			return err
		}
		_, err := f.engine.AddLiquidity(tx, amm.AddLiquidityRequest{
			Pool: f.pool, User: f.user, UserAccountA: f.userA, UserAccountB: f.userB,
			AmountA: 100_000, AmountB: 100_000,
		})
		return err
	})
	require.NoError(t, err)
	return f
}

func (f hostFixture) swap(ctx context.Context, amountIn, minOut uint64, dir model.Direction) error {
	return f.host.Execute(ctx, f.pool, func(tx *Tx) error {
		_, err := f.engine.Swap(tx, amm.SwapRequest{
			Pool: f.pool, User: f.user, UserAccountA: f.userA, UserAccountB: f.userB,
			AmountIn: amountIn, MinimumAmountOut: minOut, Direction: dir,
		})
		return err
	})
}

func (f hostFixture) poolState(t *testing.T) model.Pool {
	t.Helper()
	var pool model.Pool
	require.NoError(t, f.host.View(context.Background(), func(tx *Tx) error {
		p, ok, err := tx.Pool(f.pool)
		require.True(t, ok)
		pool = p
		return err
	}))
	return pool
}

func TestExecuteCommitsStateAndEvents(t *testing.T) {
	f := newHostFixture(t, "")
	ctx := context.Background()

	require.NoError(t, f.swap(ctx, 1_000, 0, model.AToB))
	pool := f.poolState(t)
	require.Equal(t, uint64(101_000), pool.ReserveA)
	require.Equal(t, uint64(100_000-987), pool.ReserveB)

	records, err := f.host.Events(ctx, EventFilter{FromSeq: 1})
	require.NoError(t, err)
	require.Len(t, records, 3)
	names := []string{records[0].EventName, records[1].EventName, records[2].EventName}
	require.Equal(t, []string{model.EventPoolCreated, model.EventLiquidityAdded, model.EventSwapExecuted}, names)
	for i, r := range records {
		require.Equal(t, uint64(i+1), r.Seq)
	}
	require.Equal(t, pool.ReserveB, records[2].PoolMeta.ReserveB)
	require.Equal(t, records, f.bus.records)

	decoder, err := events.NewDecoder()
	require.NoError(t, err)
	typed, err := decoder.Decode(records[2])
	require.NoError(t, err)
	swap := typed.Decoded.(model.SwapExecutedEvent)
	// floor(997*100000/100997)
	require.Equal(t, uint64(987), swap.AmountOut)

	latest, err := f.host.LatestSeq(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(3), latest)
}

func TestFailedOperationRollsBack(t *testing.T) {
	f := newHostFixture(t, "")
	ctx := context.Background()
	before := f.poolState(t)

	err := f.swap(ctx, 1_000, 1_000, model.AToB)
	require.ErrorIs(t, err, amm.ErrSlippageExceeded)

	// the input leg succeeds before the output leg fails
	err = f.host.Execute(ctx, f.pool, func(tx *Tx) error {
		_, err := f.engine.Swap(tx, amm.SwapRequest{
			Pool: f.pool, User: f.user, UserAccountA: f.userA, UserAccountB: newKey(t),
			AmountIn: 1_000, Direction: model.AToB,
		})
		return err
	})
	require.ErrorIs(t, err, amm.ErrTransferFailed)
	require.ErrorIs(t, err, ledger.ErrAccountNotFound)

	require.Equal(t, before, f.poolState(t))
	require.NoError(t, f.host.View(ctx, func(tx *Tx) error {
		acc, err := tx.Custody().Account(f.userA)
		require.Equal(t, uint64(900_000), acc.Balance)
		return err
	}))
	latest, err := f.host.LatestSeq(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), latest)
	require.Len(t, f.bus.records, 2)
}

func TestConcurrentSwapsSerialize(t *testing.T) {
	f := newHostFixture(t, "")
	ctx := context.Background()

	const workers = 8
	const swapsPerWorker = 5
	var wg sync.WaitGroup
	errs := make(chan error, workers*swapsPerWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(dir model.Direction) {
			defer wg.Done()
			for i := 0; i < swapsPerWorker; i++ {
				errs <- f.swap(ctx, 500, 0, dir)
			}
		}(model.Direction(w%2 == 0))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	pool := f.poolState(t)
	var vaultA, vaultB model.Account
	require.NoError(t, f.host.View(ctx, func(tx *Tx) error {
		var err error
		if vaultA, err = tx.Custody().Account(pool.VaultA); err != nil {
			return err
		}
		vaultB, err = tx.Custody().Account(pool.VaultB)
		return err
	}))
	require.Equal(t, vaultA.Balance, pool.ReserveA)
	require.Equal(t, vaultB.Balance, pool.ReserveB)

	records, err := f.host.Events(ctx, EventFilter{FromSeq: 3})
	require.NoError(t, err)
	require.Len(t, records, workers*swapsPerWorker)
	for i, r := range records {
		require.Equal(t, uint64(i+3), r.Seq)
	}
}

func TestEventsFilter(t *testing.T) {
	f := newHostFixture(t, "")
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, f.swap(ctx, 100, 0, model.BToA))
	}

	records, err := f.host.Events(ctx, EventFilter{FromSeq: 2, ToSeq: 4})
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, uint64(4), records[2].Seq)

	records, err = f.host.Events(ctx, EventFilter{FromSeq: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, records, 2)

	records, err = f.host.Events(ctx, EventFilter{Pools: map[string]struct{}{newKey(t).String(): {}}})
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestReopenRecoversSequence(t *testing.T) {
	dir := t.TempDir()
	f := newHostFixture(t, dir)
	require.NoError(t, f.swap(context.Background(), 100, 0, model.AToB))
	require.NoError(t, f.host.Close())

	host, err := Open(Config{Path: dir, LedgerProgramID: testLedgerProgram}, nil, nil)
	require.NoError(t, err)
	defer host.Close()
	require.Equal(t, uint64(4), host.nextSeq)

	var pools []model.Pool
	require.NoError(t, host.View(context.Background(), func(tx *Tx) error {
		var err error
		pools, err = tx.Pools()
		return err
	}))
	require.Len(t, pools, 1)
	require.Equal(t, f.pool, pools[0].Address)
}

func TestKeyedMutexReleasesKeys(t *testing.T) {
	k := newKeyedMutex()
	unlock := k.Lock("a")
	done := make(chan struct{})
	go func() {
		u := k.Lock("a")
		u()
		close(done)
	}()
	unlock()
	<-done
	k.mu.Lock()
	defer k.mu.Unlock()
	require.Empty(t, k.locks)
}
