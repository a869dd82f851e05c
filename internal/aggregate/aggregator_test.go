package aggregate

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"ammEngine/internal/events"
	"ammEngine/internal/model"
	"ammEngine/internal/storage"
)

type memStore struct {
	pools   map[string]model.PoolRow
	metrics []model.PoolWindowMetrics
}

func newMemStore() *memStore {
	return &memStore{pools: make(map[string]model.PoolRow)}
}

func (m *memStore) UpsertPools(_ context.Context, pools []model.PoolRow) error {
	for _, p := range pools {
		m.pools[p.Address] = p
	}
	return nil
}

func (m *memStore) UpsertWindowMetrics(_ context.Context, metrics []model.PoolWindowMetrics) error {
	m.metrics = append(m.metrics, metrics...)
	return nil
}

type staticDecimals struct {
	decimals map[string]uint8
	calls    int
}

func (s *staticDecimals) AssetDecimals(_ context.Context, asset string) (uint8, error) {
	s.calls++
	d, ok := s.decimals[asset]
	if !ok {
		return 0, errors.New("asset not found")
	}
	return d, nil
}

type fixture struct {
	pool     model.Pool
	user     solana.PublicKey
	path     string
	decimals *staticDecimals
}

func writeFixture(t *testing.T) fixture {
	t.Helper()
	pool := model.Pool{
		Address: solana.NewWallet().PublicKey(),
		AssetA:  solana.NewWallet().PublicKey(),
		AssetB:  solana.NewWallet().PublicKey(),
		FeeRate: 30,
	}
	user := solana.NewWallet().PublicKey()

	type step struct {
		event    model.Event
		ts       uint64
		reserveA uint64
		reserveB uint64
	}
	steps := []step{
		{model.PoolCreatedEvent{Pool: pool.Address, AssetA: pool.AssetA, AssetB: pool.AssetB, FeeRate: 30}, 100, 0, 0},
		{model.LiquidityAddedEvent{User: user, AmountA: 100_000, AmountB: 100_000}, 110, 100_000, 100_000},
		{model.SwapExecutedEvent{User: user, AmountIn: 1000, AmountOut: 987, Direction: model.AToB}, 115, 101_000, 99_013},
		{model.SwapExecutedEvent{User: user, AmountIn: 500, AmountOut: 494, Direction: model.BToA}, 200, 100_506, 99_513},
	}

	records := make([]model.EventRecord, 0, len(steps))
	for i, s := range steps {
		snapshot := pool
		snapshot.ReserveA = s.reserveA
		snapshot.ReserveB = s.reserveB
		record, err := events.NewRecord(uint64(i+1), snapshot, s.event, s.ts)
		require.NoError(t, err)
		records = append(records, record)
	}

	path := filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(t, storage.NewJsonlStorage(path).PutEventBatch(context.Background(), records))

	return fixture{
		pool: pool,
		user: user,
		path: path,
		decimals: &staticDecimals{decimals: map[string]uint8{
			pool.AssetA.String(): 6,
			pool.AssetB.String(): 6,
		}},
	}
}

func TestAggregatorWindows(t *testing.T) {
	fx := writeFixture(t)
	store := newMemStore()
	state := &FileStateStore{Path: filepath.Join(t.TempDir(), "state.json")}

	agg, err := NewAggregator(Config{WindowSeconds: 60, StateStore: state}, store, fx.decimals, nil)
	require.NoError(t, err)
	require.NoError(t, agg.Run(context.Background(), fx.path))

	require.Len(t, store.metrics, 2)
	first, second := store.metrics[0], store.metrics[1]
	if first.WindowStart.Unix() > second.WindowStart.Unix() {
		first, second = second, first
	}

	require.Equal(t, int64(60), first.WindowStart.Unix())
	require.Equal(t, int64(120), first.WindowEnd.Unix())
	require.Equal(t, uint64(1), first.SwapCount)
	require.Equal(t, "0.001000", first.VolumeA)
	require.Equal(t, "0.000987", first.VolumeB)
	require.Equal(t, "0.000003", first.FeeA)
	require.Equal(t, "0.000000", first.FeeB)
	require.NotNil(t, first.TVLA)
	require.Equal(t, "0.101000", *first.TVLA)
	require.Equal(t, tvlMethodReserves, first.TVLMethod)
	require.NotNil(t, first.FeeRateA)
	require.Nil(t, first.FeeRateB)
	require.NotNil(t, first.APR)

	require.Equal(t, int64(180), second.WindowStart.Unix())
	require.Equal(t, "0.000001", second.FeeB)
	require.Equal(t, "0.000494", second.VolumeA)
	require.Equal(t, "0.000500", second.VolumeB)

	row, ok := store.pools[fx.pool.Address.String()]
	require.True(t, ok)
	require.Equal(t, uint64(1), row.FirstSeenSeq)
	require.Equal(t, uint64(4), row.LastSeq)
	require.Equal(t, uint64(100_506), row.ReserveA)
	require.Equal(t, uint64(30), row.FeeRate)

	seq, ok, err := state.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(4), seq)
	require.Equal(t, 2, fx.decimals.calls)
}

func TestAggregatorResumesFromState(t *testing.T) {
	fx := writeFixture(t)
	state := &FileStateStore{Path: filepath.Join(t.TempDir(), "state.json")}
	require.NoError(t, state.Save(context.Background(), 4))

	store := newMemStore()
	agg, err := NewAggregator(Config{WindowSeconds: 60, StateStore: state}, store, fx.decimals, nil)
	require.NoError(t, err)
	require.NoError(t, agg.Run(context.Background(), fx.path))
	require.Empty(t, store.metrics)
	require.Empty(t, store.pools)
}

func TestAggregatorRecomputeIgnoresState(t *testing.T) {
	fx := writeFixture(t)
	state := &FileStateStore{Path: filepath.Join(t.TempDir(), "state.json")}
	require.NoError(t, state.Save(context.Background(), 4))

	store := newMemStore()
	agg, err := NewAggregator(Config{WindowSeconds: 60, RecomputeFrom: 180, StateStore: state}, store, fx.decimals, nil)
	require.NoError(t, err)
	require.NoError(t, agg.Run(context.Background(), fx.path))
	require.Len(t, store.metrics, 1)
	require.Equal(t, int64(180), store.metrics[0].WindowStart.Unix())
}

func TestAggregatorUnknownDecimalsFallsBackToBaseUnits(t *testing.T) {
	fx := writeFixture(t)
	store := newMemStore()
	agg, err := NewAggregator(Config{WindowSeconds: 3600}, store, &staticDecimals{}, nil)
	require.NoError(t, err)
	require.NoError(t, agg.Run(context.Background(), fx.path))

	require.Len(t, store.metrics, 1)
	require.Equal(t, "1494", store.metrics[0].VolumeA)
	require.Equal(t, uint64(2), store.metrics[0].SwapCount)
}

func TestAccumulatorFeeOnInputSide(t *testing.T) {
	acc := NewAccumulator(&model.TypedEvent{Seq: 1, PoolMeta: model.PoolMeta{FeeRate: 100}}, 0, 60)
	require.NoError(t, acc.AddEvent(&model.TypedEvent{
		Seq:      2,
		PoolMeta: model.PoolMeta{FeeRate: 100},
		Decoded:  model.SwapExecutedEvent{AmountIn: 10_000, AmountOut: 9_000, Direction: model.BToA},
	}))
	require.Equal(t, int64(0), acc.FeeA.Int64())
	require.Equal(t, int64(100), acc.FeeB.Int64())
	require.Equal(t, int64(9_000), acc.VolumeA.Int64())
	require.Equal(t, int64(10_000), acc.VolumeB.Int64())
}

func TestComputeAPR(t *testing.T) {
	rate := "0.001"
	apr := computeAPR(&rate, nil, 365*24*3600)
	require.NotNil(t, apr)
	require.Equal(t, "0.001000000000000000", *apr)

	other := "0.003"
	apr = computeAPR(&rate, &other, 365*24*3600)
	require.NotNil(t, apr)
	require.Equal(t, "0.002000000000000000", *apr)

	require.Nil(t, computeAPR(nil, nil, 60))
}

func TestFormatTokenAmount(t *testing.T) {
	require.Equal(t, "1.500000", formatTokenAmount(big.NewInt(1_500_000), 6))
	require.Equal(t, "42", formatTokenAmount(big.NewInt(42), 0))
	require.Equal(t, "0", formatTokenAmount(nil, 6))
}
