// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  *prometheus.HistogramVec
	PairsProcessed    *prometheus.CounterVec
	TradesClosed      *prometheus.CounterVec
	PairsQualified    prometheus.Gauge
	PortfolioSharpe   prometheus.Gauge

	// Sweep metrics
	SweepCellsTotal *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulPipeline prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered on the default registry.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWithRegistry(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates a new Metrics instance registered on reg.
func NewMetricsWithRegistry(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "pairs_lab"
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Pipeline metrics
		PipelineRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"mode", "status"}),
		PipelineDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}, []string{"mode"}),
		PairsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "pairs_processed_total",
			Help:      "Total number of pairs backtested by outcome",
		}, []string{"outcome"}),
		TradesClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "trades_closed_total",
			Help:      "Total number of closed trades by exit reason",
		}, []string{"exit_reason"}),
		PairsQualified: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "pairs_qualified",
			Help:      "Number of qualifying pairs in the last run",
		}),
		PortfolioSharpe: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "sharpe_ratio",
			Help:      "Annualized Sharpe ratio of the last run (NaN when undefined)",
		}),

		// Sweep metrics
		SweepCellsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "cells_total",
			Help:      "Total number of sensitivity sweep cells by status",
		}, []string{"status"}),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulPipeline: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_pipeline_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordPairProcessed records one pair's outcome: "traded", "no_trades" or "error".
func (m *Metrics) RecordPairProcessed(outcome string) {
	m.PairsProcessed.WithLabelValues(outcome).Inc()
}

// RecordTradeClosed increments the closed trades counter.
func (m *Metrics) RecordTradeClosed(exitReason string) {
	m.TradesClosed.WithLabelValues(exitReason).Inc()
}

// RecordRunResult records the headline numbers of a finished run.
func (m *Metrics) RecordRunResult(qualified int, sharpe float64, unixTime int64) {
	m.PairsQualified.Set(float64(qualified))
	m.PortfolioSharpe.Set(sharpe)
	m.LastSuccessfulPipeline.Set(float64(unixTime))
}

// RecordPipelineRun records a pipeline run.
func (m *Metrics) RecordPipelineRun(mode, status string, durationSeconds float64) {
	m.PipelineRunsTotal.WithLabelValues(mode, status).Inc()
	m.PipelineDuration.WithLabelValues(mode).Observe(durationSeconds)
}

// RecordSweepCell records one sensitivity sweep cell.
func (m *Metrics) RecordSweepCell(status string) {
	m.SweepCellsTotal.WithLabelValues(status).Inc()
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordDBQuery records database query metrics on DefaultMetrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.RecordDBQuery(database, operation, seconds, err)
}
