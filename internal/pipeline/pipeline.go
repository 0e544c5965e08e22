// Package pipeline runs the per-pair backtest across all pairs and
// aggregates the results: prices -> z-score -> signals -> trades ->
// pair summaries -> qualification -> portfolio.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"pairs-lab/internal/backtest"
	"pairs-lab/internal/domain"
	"pairs-lab/internal/idhash"
	"pairs-lab/internal/lookup"
	"pairs-lab/internal/metrics"
	"pairs-lab/internal/observability"
	"pairs-lab/internal/storage"
	"pairs-lab/internal/strategy"
	"pairs-lab/internal/timeseries"
)

// DefaultSnapshotRows is the number of trailing defined z-score rows kept per pair.
const DefaultSnapshotRows = 50

// ErrNoPairs is returned when Run is called with an empty pair list.
var ErrNoPairs = errors.New("no pairs to backtest")

// Pipeline coordinates a full backtest run.
type Pipeline struct {
	// Stores
	priceStore     storage.PriceHistoryStore
	tradeStore     storage.TradeStore
	summaryStore   storage.PairSummaryStore
	portfolioStore storage.PortfolioStore
	snapshotStore  storage.ZScoreSnapshotStore
	runStore       storage.RunStore

	// Configs
	thresholds domain.Thresholds
	criteria   domain.QualificationCriteria
	strategy   strategy.Strategy

	// Options
	workers      int
	year         int
	snapshotRows int
	mode         string
	logger       logrus.FieldLogger
	metrics      *observability.Metrics
	clock        func() time.Time
	newRunID     func() string
}

// Options for creating a Pipeline.
type Options struct {
	// Required stores
	PriceStore     storage.PriceHistoryStore
	TradeStore     storage.TradeStore
	SummaryStore   storage.PairSummaryStore
	PortfolioStore storage.PortfolioStore

	// Optional stores
	SnapshotStore storage.ZScoreSnapshotStore
	RunStore      storage.RunStore

	Thresholds domain.Thresholds
	Criteria   domain.QualificationCriteria

	Workers      int // <= 0 uses GOMAXPROCS
	Year         int // when non-zero, only that calendar year's signals are matched
	SnapshotRows int // <= 0 uses DefaultSnapshotRows
	Mode         string
	Logger       logrus.FieldLogger
	Metrics      *observability.Metrics
	Clock        func() time.Time
	NewRunID     func() string
}

// New creates a Pipeline. Returns strategy.ErrInvalidThresholds for bad thresholds.
func New(opts Options) (*Pipeline, error) {
	if opts.PriceStore == nil || opts.TradeStore == nil || opts.SummaryStore == nil || opts.PortfolioStore == nil {
		return nil, fmt.Errorf("pipeline: %w: missing required store", storage.ErrInvalidInput)
	}

	strat, err := strategy.FromThresholds(opts.Thresholds)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		priceStore:     opts.PriceStore,
		tradeStore:     opts.TradeStore,
		summaryStore:   opts.SummaryStore,
		portfolioStore: opts.PortfolioStore,
		snapshotStore:  opts.SnapshotStore,
		runStore:       opts.RunStore,
		thresholds:     opts.Thresholds,
		criteria:       opts.Criteria,
		strategy:       strat,
		workers:        opts.Workers,
		year:           opts.Year,
		snapshotRows:   opts.SnapshotRows,
		mode:           opts.Mode,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		clock:          opts.Clock,
		newRunID:       opts.NewRunID,
	}

	if p.workers <= 0 {
		p.workers = runtime.GOMAXPROCS(0)
	}
	if p.snapshotRows <= 0 {
		p.snapshotRows = DefaultSnapshotRows
	}
	if p.mode == "" {
		p.mode = "run"
	}
	if p.logger == nil {
		p.logger = logrus.StandardLogger()
	}
	if p.metrics == nil {
		p.metrics = observability.DefaultMetrics
	}
	if p.clock == nil {
		p.clock = func() time.Time { return time.Now().UTC() }
	}
	if p.newRunID == nil {
		p.newRunID = func() string { return uuid.New().String() }
	}
	return p, nil
}

// PairResult is one pair's backtest outcome.
type PairResult struct {
	Pair     domain.PairParameters
	Events   []domain.SignalEvent // LONG/SHORT/EXIT only
	Trades   []*domain.ClosedTrade
	Snapshot []domain.ZScorePoint // trailing defined z-scores
	Err      error                // non-nil if the pair could not be backtested
}

// RunResult contains the results of one pipeline run.
type RunResult struct {
	RunID      string
	StrategyID string
	ParamsID   string
	Year       int
	StartedAt  time.Time

	Pairs        []*PairResult // same order as the input pairs
	Summaries    []*domain.PairSummary
	Qualified    []*domain.PairSummary
	Portfolio    *domain.PortfolioSummary
	NoTradePairs []string
	Errors       []string
}

// Trades returns all closed trades in pair order.
func (r *RunResult) Trades() []*domain.ClosedTrade {
	var out []*domain.ClosedTrade
	for _, pr := range r.Pairs {
		out = append(out, pr.Trades...)
	}
	return out
}

// Run backtests every pair concurrently, then aggregates single-threaded.
// Output ordering follows the order of pairs regardless of scheduling.
// A pair that fails (for example on a missing price) is recorded in
// RunResult.Errors and excluded; only cancellation aborts the run.
func (p *Pipeline) Run(ctx context.Context, pairs []domain.PairParameters) (*RunResult, error) {
	if len(pairs) == 0 {
		return nil, ErrNoPairs
	}

	start := p.clock()
	result := &RunResult{
		RunID:      p.newRunID(),
		StrategyID: p.strategy.ID(),
		ParamsID:   idhash.ComputeParamsID(p.thresholds),
		Year:       p.year,
		StartedAt:  start,
	}
	log := p.logger.WithFields(logrus.Fields{"run_id": result.RunID, "strategy": result.StrategyID})

	history, err := p.priceStore.GetAll(ctx)
	if err != nil {
		p.metrics.RecordPipelineRun(p.mode, "failure", time.Since(start).Seconds())
		return nil, fmt.Errorf("load price history: %w", err)
	}
	log.WithField("assets", len(history)).Info("Loaded price history")

	result.Pairs, err = p.backtestPairs(ctx, history, pairs)
	if err != nil {
		p.metrics.RecordPipelineRun(p.mode, "cancelled", time.Since(start).Seconds())
		return nil, err
	}

	if err := p.persist(ctx, result); err != nil {
		p.metrics.RecordPipelineRun(p.mode, "failure", time.Since(start).Seconds())
		return nil, err
	}

	aggregator := metrics.NewAggregator(p.tradeStore, p.summaryStore, p.portfolioStore, p.criteria)
	agg, err := aggregator.ComputeAndStore(ctx, result.RunID, succeededPairs(result.Pairs))
	if err != nil {
		p.metrics.RecordPipelineRun(p.mode, "failure", time.Since(start).Seconds())
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	result.Summaries = agg.Summaries
	result.Qualified = agg.Qualified
	result.Portfolio = agg.Portfolio
	result.NoTradePairs = aggregator.NoTradePairs

	for _, msg := range aggregator.NoTradeMessages() {
		log.Debug(msg)
	}

	if p.runStore != nil {
		record := &storage.RunRecord{
			RunID:          result.RunID,
			StrategyID:     result.StrategyID,
			ParamsID:       result.ParamsID,
			Year:           result.Year,
			StartedAt:      start,
			PairCount:      len(pairs),
			TradeCount:     len(result.Trades()),
			QualifiedCount: len(result.Qualified),
		}
		if err := p.runStore.Insert(ctx, record); err != nil {
			return nil, fmt.Errorf("store run: %w", err)
		}
	}

	p.metrics.RecordRunResult(len(result.Qualified), result.Portfolio.SharpeRatio, p.clock().Unix())
	p.metrics.RecordPipelineRun(p.mode, "success", time.Since(start).Seconds())

	log.WithFields(logrus.Fields{
		"pairs":     len(pairs),
		"trades":    len(result.Trades()),
		"qualified": len(result.Qualified),
		"errors":    len(result.Errors),
		"sharpe":    sharpeField(result.Portfolio.SharpeRatio),
	}).Info("Run complete")

	return result, nil
}

// backtestPairs dispatches one task per pair onto a bounded worker pool.
// Each task writes only its own slot, so no locking is needed.
func (p *Pipeline) backtestPairs(ctx context.Context, history domain.PriceHistory, pairs []domain.PairParameters) ([]*PairResult, error) {
	runner := backtest.NewRunner(backtest.RunnerOptions{
		History:       history,
		Strategy:      p.strategy,
		RollingWindow: p.thresholds.RollingWindow,
		Year:          p.year,
	})

	results := make([]*PairResult, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, pair := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.backtestPair(gctx, runner, pair)
			if errors.Is(results[i].Err, context.Canceled) || errors.Is(results[i].Err, context.DeadlineExceeded) {
				return results[i].Err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Pipeline) backtestPair(ctx context.Context, runner *backtest.Runner, pair domain.PairParameters) *PairResult {
	pr := &PairResult{Pair: pair}
	log := p.logger.WithField("pair", pair.Name())

	res, err := runner.Run(ctx, pair)
	if err != nil {
		pr.Err = err
		p.metrics.RecordPairProcessed("error")

		var missing *lookup.MissingPriceError
		if errors.As(err, &missing) {
			log.WithFields(logrus.Fields{"asset": missing.Asset, "date": missing.Date.Format("2006-01-02")}).
				Warn("Missing price, pair skipped")
		} else {
			log.WithError(err).Warn("Pair backtest failed")
		}
		return pr
	}

	pr.Events = res.Events
	pr.Trades = res.Trades
	pr.Snapshot = timeseries.DefinedTail(res.ZScores, p.snapshotRows)

	outcome := "traded"
	if len(pr.Trades) == 0 {
		outcome = "no_trades"
	}
	p.metrics.RecordPairProcessed(outcome)
	for _, t := range pr.Trades {
		p.metrics.RecordTradeClosed(t.ExitReason)
	}

	log.WithField("trades", len(pr.Trades)).Debug("Pair backtested")
	return pr
}

// persist writes trades and snapshots in pair order.
func (p *Pipeline) persist(ctx context.Context, result *RunResult) error {
	for _, pr := range result.Pairs {
		if pr.Err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", pr.Pair.Name(), pr.Err))
			continue
		}
		if p.snapshotStore != nil && len(pr.Snapshot) > 0 {
			if err := p.snapshotStore.Put(ctx, pr.Pair.Key(), pr.Snapshot); err != nil {
				return fmt.Errorf("store snapshot %s: %w", pr.Pair.Name(), err)
			}
		}
	}

	if err := p.tradeStore.InsertBulk(ctx, result.RunID, result.Trades()); err != nil {
		return fmt.Errorf("store trades: %w", err)
	}
	return nil
}

func succeededPairs(results []*PairResult) []domain.PairParameters {
	out := make([]domain.PairParameters, 0, len(results))
	for _, pr := range results {
		if pr.Err == nil {
			out = append(out, pr.Pair)
		}
	}
	return out
}

// sharpeField keeps NaN out of JSON log output.
func sharpeField(v float64) interface{} {
	if math.IsNaN(v) {
		return "undefined"
	}
	return v
}
