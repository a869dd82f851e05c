package amm

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"ammEngine/internal/model"
)

func TestMetricsTrackSwaps(t *testing.T) {
	f := newPoolFixture(t, 30)
	_, err := f.addLiquidity(100_000, 100_000)
	require.NoError(t, err)

	_, err = f.swap(1000, 0, model.AToB)
	require.NoError(t, err)
	_, err = f.swap(1000, 1_000, model.AToB)
	require.ErrorIs(t, err, ErrSlippageExceeded)

	m := NewMetrics()
	require.Same(t, m, f.engine.metrics)

	pool := f.pool.String()
	dir := model.AToB.String()
	require.Equal(t, 1.0, testutil.ToFloat64(m.SwapsTotal.WithLabelValues(pool, dir, "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.SwapsTotal.WithLabelValues(pool, dir, "failed")))
	require.Equal(t, 1000.0, testutil.ToFloat64(m.SwapVolume.WithLabelValues(pool, f.assetA.String())))
	require.Equal(t, 3.0, testutil.ToFloat64(m.SwapFeesCollected.WithLabelValues(pool, f.assetA.String())))
	require.Equal(t, 101_000.0, testutil.ToFloat64(m.PoolReserves.WithLabelValues(pool, f.assetA.String())))
	require.Equal(t, 99_013.0, testutil.ToFloat64(m.PoolReserves.WithLabelValues(pool, f.assetB.String())))
}
