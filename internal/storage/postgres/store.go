package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ammEngine/internal/model"
)

// Store provides Postgres persistence for pools, events and window metrics.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables the store writes to.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// UpsertPools inserts or updates pool rows. Reserves follow the row with the
// highest sequence.
func (s *Store) UpsertPools(ctx context.Context, pools []model.PoolRow) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range pools {
		batch.Queue(`
			INSERT INTO pools (
				pool_address, asset_a, asset_b, fee_rate, reserve_a, reserve_b,
				first_seen_seq, last_seq, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
			ON CONFLICT (pool_address)
			DO UPDATE SET
				asset_a = EXCLUDED.asset_a,
				asset_b = EXCLUDED.asset_b,
				fee_rate = EXCLUDED.fee_rate,
				reserve_a = CASE WHEN EXCLUDED.last_seq >= pools.last_seq THEN EXCLUDED.reserve_a ELSE pools.reserve_a END,
				reserve_b = CASE WHEN EXCLUDED.last_seq >= pools.last_seq THEN EXCLUDED.reserve_b ELSE pools.reserve_b END,
				first_seen_seq = LEAST(pools.first_seen_seq, EXCLUDED.first_seen_seq),
				last_seq = GREATEST(pools.last_seq, EXCLUDED.last_seq),
				updated_at = now()
		`,
			p.Address,
			p.AssetA,
			p.AssetB,
			numeric(p.FeeRate),
			numeric(p.ReserveA),
			numeric(p.ReserveB),
			numeric(p.FirstSeenSeq),
			numeric(p.LastSeq),
		)
	}
	return sendBatch(ctx, s.pool, batch, len(pools))
}

// PutEventBatch stores raw event records. Records already stored are skipped.
func (s *Store) PutEventBatch(ctx context.Context, records []model.EventRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO pool_events (
				seq, pool_address, event_name, topic0, event_ts, data,
				reserve_a, reserve_b, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
			ON CONFLICT (seq) DO NOTHING
		`,
			numeric(r.Seq),
			r.Pool,
			r.EventName,
			r.Topic0,
			numeric(r.Timestamp),
			r.Data,
			numeric(r.PoolMeta.ReserveA),
			numeric(r.PoolMeta.ReserveB),
		)
	}
	return sendBatch(ctx, s.pool, batch, len(records))
}

// UpsertWindowMetrics inserts or updates window metrics.
func (s *Store) UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO pool_window_metrics (
				pool_address, window_size_seconds, window_start_ts, window_end_ts,
				swap_count, volume_a, volume_b, fee_a, fee_b, fee_rate_a, fee_rate_b,
				tvl_a, tvl_b, apr, fee_method, tvl_method, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,now(),now())
			ON CONFLICT (pool_address, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				volume_a = EXCLUDED.volume_a,
				volume_b = EXCLUDED.volume_b,
				fee_a = EXCLUDED.fee_a,
				fee_b = EXCLUDED.fee_b,
				fee_rate_a = EXCLUDED.fee_rate_a,
				fee_rate_b = EXCLUDED.fee_rate_b,
				tvl_a = EXCLUDED.tvl_a,
				tvl_b = EXCLUDED.tvl_b,
				apr = EXCLUDED.apr,
				fee_method = EXCLUDED.fee_method,
				tvl_method = EXCLUDED.tvl_method,
				updated_at = now()
		`,
			m.PoolAddress,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			m.VolumeA,
			m.VolumeB,
			m.FeeA,
			m.FeeB,
			m.FeeRateA,
			m.FeeRateB,
			m.TVLA,
			m.TVLB,
			m.APR,
			m.FeeMethod,
			m.TVLMethod,
		)
	}
	return sendBatch(ctx, s.pool, batch, len(metrics))
}

// LoadState returns last_processed_seq for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var text string
	row := s.pool.QueryRow(ctx, `SELECT last_processed_seq::text FROM indexer_state WHERE name=$1`, name)
	if err := row.Scan(&text); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	seq, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse state %s: %w", name, err)
	}
	return seq, true, nil
}

// SaveState upserts last_processed_seq for a name.
func (s *Store) SaveState(ctx context.Context, name string, seq uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_state (name, last_processed_seq, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_seq = EXCLUDED.last_processed_seq, updated_at = now()
	`, name, numeric(seq))
	return err
}

func sendBatch(ctx context.Context, pool *pgxpool.Pool, batch *pgx.Batch, n int) error {
	br := pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
