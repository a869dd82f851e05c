package postgres

import "strconv"

// u64 values are stored as NUMERIC(20,0); BIGINT cannot hold the full range.
const schema = `
CREATE TABLE IF NOT EXISTS pools (
	pool_address   TEXT PRIMARY KEY,
	asset_a        TEXT NOT NULL,
	asset_b        TEXT NOT NULL,
	fee_rate       NUMERIC(20,0) NOT NULL,
	reserve_a      NUMERIC(20,0) NOT NULL,
	reserve_b      NUMERIC(20,0) NOT NULL,
	first_seen_seq NUMERIC(20,0) NOT NULL,
	last_seq       NUMERIC(20,0) NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS pool_events (
	seq          NUMERIC(20,0) PRIMARY KEY,
	pool_address TEXT NOT NULL,
	event_name   TEXT NOT NULL,
	topic0       TEXT NOT NULL,
	event_ts     NUMERIC(20,0) NOT NULL,
	data         TEXT NOT NULL,
	reserve_a    NUMERIC(20,0) NOT NULL,
	reserve_b    NUMERIC(20,0) NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS pool_events_pool_seq ON pool_events (pool_address, seq);

CREATE TABLE IF NOT EXISTS pool_window_metrics (
	pool_address        TEXT NOT NULL,
	window_size_seconds BIGINT NOT NULL,
	window_start_ts     TIMESTAMPTZ NOT NULL,
	window_end_ts       TIMESTAMPTZ NOT NULL,
	swap_count          BIGINT NOT NULL,
	volume_a            NUMERIC NOT NULL,
	volume_b            NUMERIC NOT NULL,
	fee_a               NUMERIC NOT NULL,
	fee_b               NUMERIC NOT NULL,
	fee_rate_a          NUMERIC,
	fee_rate_b          NUMERIC,
	tvl_a               NUMERIC,
	tvl_b               NUMERIC,
	apr                 NUMERIC,
	fee_method          TEXT NOT NULL,
	tvl_method          TEXT NOT NULL,
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (pool_address, window_size_seconds, window_start_ts)
);

CREATE TABLE IF NOT EXISTS indexer_state (
	name               TEXT PRIMARY KEY,
	last_processed_seq NUMERIC(20,0) NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL
);
`

// numeric renders a u64 for a NUMERIC column.
func numeric(v uint64) string {
	return strconv.FormatUint(v, 10)
}
