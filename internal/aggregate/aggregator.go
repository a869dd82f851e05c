package aggregate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ammEngine/internal/events"
	"ammEngine/internal/model"
	"ammEngine/internal/storage"
)

const feeMethodInput = "fee_rate_bps_on_input"

// MetricsStore receives pool rows and window metrics.
type MetricsStore interface {
	UpsertPools(ctx context.Context, pools []model.PoolRow) error
	UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error
}

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	// RecomputeFrom ignores saved state and rebuilds windows from this
	// unix timestamp on.
	RecomputeFrom uint64
	StateStore    StateStore
}

// Aggregator folds event records into per-pool window metrics.
type Aggregator struct {
	cfg          Config
	store        MetricsStore
	decimals     *DecimalsCache
	decoder      *events.Decoder
	logger       *zap.Logger
	accumulators map[string]*Accumulator
	pools        map[string]*model.PoolRow
	dirtyPools   map[string]struct{}
	lastSeq      uint64
}

func NewAggregator(cfg Config, store MetricsStore, decimals DecimalsSource, logger *zap.Logger) (*Aggregator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	decoder, err := events.NewDecoder()
	if err != nil {
		return nil, err
	}

	return &Aggregator{
		cfg:          cfg,
		store:        store,
		decimals:     NewDecimalsCache(decimals),
		decoder:      decoder,
		logger:       logger,
		accumulators: make(map[string]*Accumulator),
		pools:        make(map[string]*model.PoolRow),
		dirtyPools:   make(map[string]struct{}),
	}, nil
}

// Run aggregates an event record JSONL file.
func (a *Aggregator) Run(ctx context.Context, inputPath string) error {
	if a.store == nil {
		return fmt.Errorf("store is nil")
	}
	if a.cfg.WindowSeconds == 0 {
		return fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}

	startSeq, err := a.loadStartSeq(ctx)
	if err != nil {
		return err
	}
	a.lastSeq = startSeq

	batch := make([]model.PoolWindowMetrics, 0, a.cfg.BatchSize)
	var total, windows, skipped, failed int

	err = storage.ReadEvents(inputPath, func(record model.EventRecord) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		total++

		if record.Seq <= startSeq || record.Timestamp < a.cfg.RecomputeFrom {
			skipped++
			return nil
		}

		event, err := a.decoder.Decode(record)
		if err != nil {
			failed++
			a.logger.Warn("decode event", zap.Error(err), zap.Uint64("seq", record.Seq))
			return nil
		}

		start := windowStart(event.Timestamp, a.cfg.WindowSeconds)
		end := start + a.cfg.WindowSeconds

		acc := a.accumulators[event.Pool]
		if acc == nil {
			acc = NewAccumulator(event, start, end)
			a.accumulators[event.Pool] = acc
		} else if acc.WindowStart != start {
			metrics := a.flushAccumulator(ctx, acc)
			if metrics != nil {
				batch = append(batch, *metrics)
				windows++
			}
			acc = NewAccumulator(event, start, end)
			a.accumulators[event.Pool] = acc
		}

		if err := acc.AddEvent(event); err != nil {
			failed++
			a.logger.Warn("aggregate event", zap.Error(err), zap.String("pool", event.Pool), zap.String("event", event.EventName))
			return nil
		}
		a.trackPool(event)
		if event.Seq > a.lastSeq {
			a.lastSeq = event.Seq
		}

		if len(batch) >= a.cfg.BatchSize {
			if err := a.flushBatches(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]
			if err := a.saveState(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, acc := range a.accumulators {
		if metrics := a.flushAccumulator(ctx, acc); metrics != nil {
			batch = append(batch, *metrics)
			windows++
		}
	}
	a.accumulators = make(map[string]*Accumulator)

	if err := a.flushBatches(ctx, batch); err != nil {
		return err
	}
	if err := a.saveState(ctx); err != nil {
		return err
	}

	a.logger.Info("aggregate complete",
		zap.Int("total", total),
		zap.Int("windows", windows),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
		zap.Uint64("last_seq", a.lastSeq),
	)
	return nil
}

func (a *Aggregator) loadStartSeq(ctx context.Context) (uint64, error) {
	if a.cfg.RecomputeFrom > 0 || a.cfg.StateStore == nil {
		return 0, nil
	}
	last, ok, err := a.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last, nil
}

// saveState records the last sequence that no open window depends on, so a
// rerun rebuilds every partially flushed window from its first event.
func (a *Aggregator) saveState(ctx context.Context) error {
	if a.cfg.StateStore == nil {
		return nil
	}
	safe := a.lastSeq
	if first := minOpenSeq(a.accumulators); first > 0 && first-1 < safe {
		safe = first - 1
	}
	return a.cfg.StateStore.Save(ctx, safe)
}

func (a *Aggregator) flushBatches(ctx context.Context, batch []model.PoolWindowMetrics) error {
	if len(a.dirtyPools) > 0 {
		rows := make([]model.PoolRow, 0, len(a.dirtyPools))
		for addr := range a.dirtyPools {
			rows = append(rows, *a.pools[addr])
		}
		if err := a.store.UpsertPools(ctx, rows); err != nil {
			return err
		}
		a.dirtyPools = make(map[string]struct{})
	}
	if len(batch) > 0 {
		if err := a.store.UpsertWindowMetrics(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

func (a *Aggregator) trackPool(event *model.TypedEvent) {
	row, ok := a.pools[event.Pool]
	if !ok {
		row = &model.PoolRow{Address: event.Pool, FirstSeenSeq: event.Seq}
		a.pools[event.Pool] = row
	}
	if event.Seq < row.FirstSeenSeq {
		row.FirstSeenSeq = event.Seq
	}
	if event.Seq >= row.LastSeq {
		row.LastSeq = event.Seq
		row.AssetA = event.PoolMeta.AssetA
		row.AssetB = event.PoolMeta.AssetB
		row.FeeRate = event.PoolMeta.FeeRate
		row.ReserveA = event.PoolMeta.ReserveA
		row.ReserveB = event.PoolMeta.ReserveB
	}
	a.dirtyPools[event.Pool] = struct{}{}
}

func (a *Aggregator) flushAccumulator(ctx context.Context, acc *Accumulator) *model.PoolWindowMetrics {
	if acc == nil {
		return nil
	}
	meta := acc.PoolMeta
	if meta.AssetA == "" || meta.AssetB == "" {
		a.logger.Warn("missing pool meta", zap.String("pool", acc.PoolAddress))
		return nil
	}

	decimalsA, err := a.decimals.Get(ctx, meta.AssetA)
	if err != nil {
		a.logger.Warn("asset a decimals", zap.String("asset", meta.AssetA), zap.Error(err))
	}
	decimalsB, err := a.decimals.Get(ctx, meta.AssetB)
	if err != nil {
		a.logger.Warn("asset b decimals", zap.String("asset", meta.AssetB), zap.Error(err))
	}

	tvlA, tvlB, tvlMethod := reserveTVL(acc)
	var tvlAStr, tvlBStr *string
	if tvlA != nil {
		val := formatTokenAmount(tvlA, decimalsA)
		tvlAStr = &val
	}
	if tvlB != nil {
		val := formatTokenAmount(tvlB, decimalsB)
		tvlBStr = &val
	}

	feeRateA, feeRateB := computeFeeRates(acc.FeeA, acc.FeeB, tvlA, tvlB)

	return &model.PoolWindowMetrics{
		PoolAddress:    acc.PoolAddress,
		WindowSizeSecs: int64(a.cfg.WindowSeconds),
		WindowStart:    time.Unix(int64(acc.WindowStart), 0).UTC(),
		WindowEnd:      time.Unix(int64(acc.WindowEnd), 0).UTC(),
		SwapCount:      acc.SwapCount,
		VolumeA:        formatTokenAmount(acc.VolumeA, decimalsA),
		VolumeB:        formatTokenAmount(acc.VolumeB, decimalsB),
		FeeA:           formatTokenAmount(acc.FeeA, decimalsA),
		FeeB:           formatTokenAmount(acc.FeeB, decimalsB),
		FeeRateA:       feeRateA,
		FeeRateB:       feeRateB,
		TVLA:           tvlAStr,
		TVLB:           tvlBStr,
		APR:            computeAPR(feeRateA, feeRateB, a.cfg.WindowSeconds),
		FeeMethod:      feeMethodInput,
		TVLMethod:      tvlMethod,
	}
}

func windowStart(ts uint64, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}

func minOpenSeq(acc map[string]*Accumulator) uint64 {
	var min uint64
	for _, entry := range acc {
		if entry == nil {
			continue
		}
		if min == 0 || entry.FirstSeq < min {
			min = entry.FirstSeq
		}
	}
	return min
}
