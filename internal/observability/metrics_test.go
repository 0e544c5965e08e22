package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Recorders(t *testing.T) {
	m := NewMetricsWithRegistry("test", prometheus.NewRegistry())

	m.RecordPairProcessed("traded")
	m.RecordPairProcessed("traded")
	m.RecordPairProcessed("no_trades")
	m.RecordTradeClosed("MEAN_REVERTED")
	m.RecordRunResult(3, 1.25, 1700000000)
	m.RecordSweepCell("ok")
	m.RecordDBQuery("postgres", "insert_trades", 0.01, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PairsProcessed.WithLabelValues("traded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PairsProcessed.WithLabelValues("no_trades")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TradesClosed.WithLabelValues("MEAN_REVERTED")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PairsQualified))
	assert.Equal(t, 1.25, testutil.ToFloat64(m.PortfolioSharpe))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SweepCellsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DBQueryErrors.WithLabelValues("postgres", "insert_trades")))
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	// Same namespace on distinct registries must not collide.
	a := NewMetricsWithRegistry("dup", prometheus.NewRegistry())
	b := NewMetricsWithRegistry("dup", prometheus.NewRegistry())

	a.RecordPipelineRun("run", "success", 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.PipelineRunsTotal.WithLabelValues("run", "success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.PipelineRunsTotal.WithLabelValues("run", "success")))
}

func TestHandler(t *testing.T) {
	assert.NotNil(t, Handler())
}
