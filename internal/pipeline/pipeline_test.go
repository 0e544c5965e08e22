package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/observability"
	"pairs-lab/internal/storage"
	"pairs-lab/internal/storage/memory"
	"pairs-lab/internal/strategy"
)

type testStores struct {
	prices    *memory.PriceHistoryStore
	pairs     *memory.PairStore
	trades    *memory.TradeStore
	summaries *memory.PairSummaryStore
	portfolio *memory.PortfolioStore
	snapshots *memory.ZScoreSnapshotStore
	runs      *memory.RunStore
}

func newTestStores() *testStores {
	return &testStores{
		prices:    memory.NewPriceHistoryStore(),
		pairs:     memory.NewPairStore(),
		trades:    memory.NewTradeStore(),
		summaries: memory.NewPairSummaryStore(),
		portfolio: memory.NewPortfolioStore(),
		snapshots: memory.NewZScoreSnapshotStore(),
		runs:      memory.NewRunStore(),
	}
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// looseCriteria qualifies any pair with a positive total return.
func looseCriteria() domain.QualificationCriteria {
	return domain.QualificationCriteria{
		MinTotalReturnPct:  0,
		MinMedianReturnPct: -100,
		MinWinRatePct:      0,
		MaxAvgHoldingDays:  1000,
		MinTradeCount:      0,
	}
}

func testOptions(s *testStores) Options {
	th := domain.DefaultThresholds()
	th.RollingWindow = 30
	runIDs := 0
	return Options{
		PriceStore:     s.prices,
		TradeStore:     s.trades,
		SummaryStore:   s.summaries,
		PortfolioStore: s.portfolio,
		SnapshotStore:  s.snapshots,
		RunStore:       s.runs,
		Thresholds:     th,
		Criteria:       looseCriteria(),
		Workers:        4,
		Logger:         quietLogger(),
		Metrics:        observability.NewMetricsWithRegistry("test", prometheus.NewRegistry()),
		Clock:          func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) },
		NewRunID: func() string {
			runIDs++
			return fmt.Sprintf("run-%d", runIDs)
		},
	}
}

func loadTestFixtures(t *testing.T, s *testStores) []domain.PairParameters {
	t.Helper()
	pairs, err := LoadFixtures(context.Background(), s.prices, s.pairs, 800, 7)
	require.NoError(t, err)
	return pairs
}

func TestNew_Validation(t *testing.T) {
	s := newTestStores()

	_, err := New(Options{})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	opts := testOptions(s)
	opts.Thresholds.RollingWindow = 1
	_, err = New(opts)
	assert.ErrorIs(t, err, strategy.ErrInvalidThresholds)
}

func TestRun_NoPairs(t *testing.T) {
	p, err := New(testOptions(newTestStores()))
	require.NoError(t, err)

	_, err = p.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoPairs)
}

func TestRun_EndToEnd(t *testing.T) {
	s := newTestStores()
	pairs := loadTestFixtures(t, s)

	p, err := New(testOptions(s))
	require.NoError(t, err)

	result, err := p.Run(context.Background(), pairs)
	require.NoError(t, err)

	assert.Equal(t, "run-1", result.RunID)
	require.Len(t, result.Pairs, len(pairs))
	for i, pr := range result.Pairs {
		assert.Equal(t, pairs[i], pr.Pair, "pair order must follow input")
		require.NoError(t, pr.Err)
		assert.LessOrEqual(t, len(pr.Snapshot), DefaultSnapshotRows)
		for _, z := range pr.Snapshot {
			assert.True(t, z.Defined)
		}
	}
	require.NotEmpty(t, result.Trades())

	// Persisted state matches the returned result
	stored, err := s.trades.GetByRun(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Len(t, stored, len(result.Trades()))

	portfolio, err := s.portfolio.GetByRun(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.InDelta(t, result.Portfolio.TotalReturn, portfolio.TotalReturn, 1e-12)

	run, err := s.runs.GetByID(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, len(pairs), run.PairCount)
	assert.Equal(t, len(result.Qualified), run.QualifiedCount)

	snap, err := s.snapshots.Get(context.Background(), pairs[0].Key())
	require.NoError(t, err)
	assert.Len(t, snap, DefaultSnapshotRows)
}

func TestRun_DeterministicAcrossWorkerCounts(t *testing.T) {
	var baseline *RunResult
	for _, workers := range []int{1, 2, 8} {
		s := newTestStores()
		pairs := loadTestFixtures(t, s)

		opts := testOptions(s)
		opts.Workers = workers
		p, err := New(opts)
		require.NoError(t, err)

		result, err := p.Run(context.Background(), pairs)
		require.NoError(t, err)

		if baseline == nil {
			baseline = result
			continue
		}
		require.Len(t, result.Trades(), len(baseline.Trades()))
		for i, tr := range result.Trades() {
			assert.Equal(t, baseline.Trades()[i].TradeID, tr.TradeID)
		}
		assert.Equal(t, len(baseline.Qualified), len(result.Qualified))
		assert.InDelta(t, baseline.Portfolio.TotalReturn, result.Portfolio.TotalReturn, 1e-12)
	}
}

func TestRun_YearMode(t *testing.T) {
	s := newTestStores()
	pairs := loadTestFixtures(t, s)

	opts := testOptions(s)
	opts.Year = 2021
	p, err := New(opts)
	require.NoError(t, err)

	result, err := p.Run(context.Background(), pairs)
	require.NoError(t, err)
	assert.Equal(t, 2021, result.Year)
	for _, pr := range result.Pairs {
		for _, e := range pr.Events {
			assert.Equal(t, 2021, e.Date.Year())
		}
	}
}

func TestRun_PairErrorIsRecordedNotFatal(t *testing.T) {
	s := newTestStores()
	pairs := loadTestFixtures(t, s)
	pairs = append(pairs, domain.PairParameters{AssetY: "AAA", AssetX: "NOPE", HedgeRatio: 1})

	p, err := New(testOptions(s))
	require.NoError(t, err)

	result, err := p.Run(context.Background(), pairs)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "AAA_NOPE")
	assert.Error(t, result.Pairs[len(pairs)-1].Err)
}

func TestRun_Cancelled(t *testing.T) {
	s := newTestStores()
	pairs := loadTestFixtures(t, s)

	p, err := New(testOptions(s))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Run(ctx, pairs)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRun_StrictCriteriaQualifiesNothing(t *testing.T) {
	s := newTestStores()
	pairs := loadTestFixtures(t, s)

	opts := testOptions(s)
	opts.Criteria = domain.DefaultQualificationCriteria()
	opts.Criteria.MinTradeCount = 10000
	p, err := New(opts)
	require.NoError(t, err)

	result, err := p.Run(context.Background(), pairs)
	require.NoError(t, err)
	assert.Empty(t, result.Qualified)
	assert.Empty(t, result.Portfolio.Daily)
	assert.NotEmpty(t, result.Summaries)
}
