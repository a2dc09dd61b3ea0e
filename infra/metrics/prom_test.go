package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/homevolt/dayahead/core/metrics"
)

func TestPromSink_RecordPlanSummary(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)

	sum := coremetrics.PlanSummary{
		RunID:          "run-1",
		CeilingWh:      512.5,
		PeakExceeded:   false,
		TotalCostOre:   1234.5,
		SafetyPasses:   2,
		SwapMoves:      7,
		ArbitrageMoves: 3,
		SolveDuration:  25 * time.Millisecond,
	}
	require.NoError(t, sink.RecordPlanSummary(sum))

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.runs.WithLabelValues("false")))
	assert.Equal(t, 0.0, testutil.ToFloat64(sink.runs.WithLabelValues("true")))
	assert.Equal(t, 512.5, testutil.ToFloat64(sink.ceiling))
	assert.Equal(t, 1234.5, testutil.ToFloat64(sink.cost))
	assert.Equal(t, 7.0, testutil.ToFloat64(sink.moves.WithLabelValues("swap")))
	assert.Equal(t, 3.0, testutil.ToFloat64(sink.moves.WithLabelValues("arbitrage")))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.moves.WithLabelValues("safety")))

	sum.PeakExceeded = true
	require.NoError(t, sink.RecordPlanSummary(sum))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.runs.WithLabelValues("true")))
}

func TestPromSink_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)

	// Re-registering on the same registry must not fail; the existing
	// collectors are reused.
	_, err = NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	assert.NoError(t, err)
}

func TestMultiSink_FansOut(t *testing.T) {
	reg := prometheus.NewRegistry()
	prom, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)

	multi := NewMultiSink(coremetrics.NopSink{}, prom)
	require.NoError(t, multi.RecordPlanSummary(coremetrics.PlanSummary{CeilingWh: 99}))
	assert.Equal(t, 99.0, testutil.ToFloat64(prom.ceiling))
}
