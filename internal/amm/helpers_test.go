package amm

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"ammEngine/internal/ledger"
	"ammEngine/internal/model"
)

var (
	testProgram       = solana.MustPublicKeyFromBase58("8zuw1hrY3T3rPfv61Fko2645cjSq1w3mJgsDXRh4vpW3")
	testLedgerProgram = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
)

type memKV map[string][]byte

func (m memKV) Get(key []byte) ([]byte, error) { return m[string(key)], nil }

func (m memKV) Set(key, value []byte) error {
	m[string(key)] = append([]byte(nil), value...)
	return nil
}

// memState is an in-memory host. exec runs an operation on a copy and keeps
// the copy only when the operation succeeds.
type memState struct {
	pools  map[solana.PublicKey]model.Pool
	kv     memKV
	events []model.Event
	hooks  []ledger.Hook
}

type memTxn struct {
	pools  map[solana.PublicKey]model.Pool
	ledger *ledger.Ledger
	events []model.Event
}

func (t *memTxn) Pool(address solana.PublicKey) (model.Pool, bool, error) {
	p, ok := t.pools[address]
	return p, ok, nil
}

func (t *memTxn) PutPool(pool model.Pool) error {
	t.pools[pool.Address] = pool
	return nil
}

func (t *memTxn) Ledger() Ledger { return t.ledger }

func (t *memTxn) Emit(_ model.Pool, event model.Event) {
	t.events = append(t.events, event)
}

func newMemState(hooks ...ledger.Hook) *memState {
	return &memState{pools: map[solana.PublicKey]model.Pool{}, kv: memKV{}, hooks: hooks}
}

func (s *memState) exec(fn func(tx *memTxn) error) error {
	pools := make(map[solana.PublicKey]model.Pool, len(s.pools))
	for k, v := range s.pools {
		pools[k] = v
	}
	kv := make(memKV, len(s.kv))
	for k, v := range s.kv {
		kv[k] = v
	}
	tx := &memTxn{pools: pools, ledger: ledger.New(kv, testLedgerProgram, nil, s.hooks...)}
	if err := fn(tx); err != nil {
		return err
	}
	s.pools = pools
	s.kv = kv
	s.events = append(s.events, tx.events...)
	return nil
}

func (s *memState) account(t *testing.T, id solana.PublicKey) model.Account {
	t.Helper()
	var acc model.Account
	require.NoError(t, s.exec(func(tx *memTxn) error {
		var err error
		acc, err = tx.ledger.Account(id)
		return err
	}))
	return acc
}

func newKey(t testing.TB) solana.PublicKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key.PublicKey()
}

// poolFixture is one pool with a funded user holding both assets.
type poolFixture struct {
	state  *memState
	engine *Engine
	pool   solana.PublicKey
	user   solana.PublicKey
	userA  solana.PublicKey
	userB  solana.PublicKey
	assetA solana.PublicKey
	assetB solana.PublicKey
}

func newPoolFixture(t testing.TB, feeRate uint64, hooks ...ledger.Hook) poolFixture {
	t.Helper()
	f := poolFixture{
		state:  newMemState(hooks...),
		engine: NewEngine(Config{ProgramID: testProgram}, NewMetrics(), nil),
		user:   newKey(t),
		assetA: newKey(t),
		assetB: newKey(t),
	}
	addr, _, err := f.engine.PoolAddress(f.assetA, f.assetB)
	require.NoError(t, err)
	f.pool = addr

	err = f.state.exec(func(tx *memTxn) error {
		var vaultA, vaultB model.Account
		for _, a := range []solana.PublicKey{f.assetA, f.assetB} {
			if _, err := tx.ledger.RegisterAsset(a, 6); err != nil {
				return err
			}
		}
		ua, err := tx.ledger.OpenAccount(f.user, f.assetA)
		if err != nil {
			return err
		}
		ub, err := tx.ledger.OpenAccount(f.user, f.assetB)
		if err != nil {
			return err
		}
		f.userA, f.userB = ua.ID, ub.ID
		if _, err := tx.ledger.Mint(ua.ID, 1_000_000); err != nil {
			return err
		}
		if _, err := tx.ledger.Mint(ub.ID, 1_000_000); err != nil {
			return err
		}
		if vaultA, err = tx.ledger.OpenAccount(addr, f.assetA); err != nil {
			return err
		}
		if vaultB, err = tx.ledger.OpenAccount(addr, f.assetB); err != nil {
			return err
		}
		_, err = f.engine.CreatePool(tx, CreatePoolRequest{
			Authority: f.user,
			AssetA:    f.assetA,
			AssetB:    f.assetB,
			VaultA:    vaultA.ID,
			VaultB:    vaultB.ID,
			FeeRate:   feeRate,
		})
		return err
	})
	require.NoError(t, err)
	return f
}

func (f poolFixture) addLiquidity(amountA, amountB uint64) (model.Pool, error) {
	var pool model.Pool
	err := f.state.exec(func(tx *memTxn) error {
		var err error
		pool, err = f.engine.AddLiquidity(tx, AddLiquidityRequest{
			Pool:         f.pool,
			User:         f.user,
			UserAccountA: f.userA,
			UserAccountB: f.userB,
			AmountA:      amountA,
			AmountB:      amountB,
		})
		return err
	})
	return pool, err
}

func (f poolFixture) swap(amountIn, minOut uint64, dir model.Direction) (SwapResult, error) {
	var res SwapResult
	err := f.state.exec(func(tx *memTxn) error {
		var err error
		res, err = f.engine.Swap(tx, SwapRequest{
			Pool:             f.pool,
			User:             f.user,
			UserAccountA:     f.userA,
			UserAccountB:     f.userB,
			AmountIn:         amountIn,
			MinimumAmountOut: minOut,
			Direction:        dir,
		})
		return err
	})
	return res, err
}

func (f poolFixture) current() model.Pool {
	return f.state.pools[f.pool]
}
