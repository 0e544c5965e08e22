package backtest

import (
	"context"
	"fmt"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/strategy"
	"pairs-lab/internal/timeseries"
)

// Results holds one pair's backtest output.
type Results struct {
	Pair       domain.PairParameters
	StrategyID string
	ZScores    []domain.ZScorePoint
	Events     []domain.SignalEvent // filtered: LONG/SHORT/EXIT only
	Trades     []*domain.ClosedTrade
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	History       domain.PriceHistory
	Strategy      strategy.Strategy
	RollingWindow int
	Year          int // when non-zero, only events dated in this year are matched
}

// Runner executes the per-pair flow: prices -> z-score -> signals -> trades.
type Runner struct {
	history  domain.PriceHistory
	strategy strategy.Strategy
	window   int
	year     int
}

// NewRunner creates a new backtest runner.
func NewRunner(opts RunnerOptions) *Runner {
	return &Runner{
		history:  opts.History,
		strategy: opts.Strategy,
		window:   opts.RollingWindow,
		year:     opts.Year,
	}
}

// Run backtests a single pair. Safe to call concurrently for different pairs.
func (r *Runner) Run(ctx context.Context, pair domain.PairParameters) (*Results, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	zscores, err := timeseries.PairZScores(r.history, pair, r.window)
	if err != nil {
		return nil, fmt.Errorf("zscore %s: %w", pair.Name(), err)
	}

	events, err := r.strategy.Generate(ctx, zscores)
	if err != nil {
		return nil, fmt.Errorf("signals %s: %w", pair.Name(), err)
	}

	filtered := domain.FilterEvents(events)
	if r.year != 0 {
		filtered = timeseries.EventsInYear(filtered, r.year)
	}

	engine, err := NewEngineFromHistory(pair, r.history)
	if err != nil {
		return nil, err
	}

	trades, err := engine.MatchTrades(filtered)
	if err != nil {
		return nil, fmt.Errorf("match %s: %w", pair.Name(), err)
	}

	return &Results{
		Pair:       pair,
		StrategyID: r.strategy.ID(),
		ZScores:    zscores,
		Events:     filtered,
		Trades:     trades,
	}, nil
}
