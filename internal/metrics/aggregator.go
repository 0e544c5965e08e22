package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/storage"
)

// Aggregator computes pair summaries and the portfolio of a run from
// stored trades and persists the results.
type Aggregator struct {
	tradeStore     storage.TradeStore
	summaryStore   storage.PairSummaryStore
	portfolioStore storage.PortfolioStore
	criteria       domain.QualificationCriteria

	// NoTradePairs lists pairs with zero completed trades in the last
	// aggregation, for reporting as "no completed trades".
	NoTradePairs []string
}

// NewAggregator creates a new metrics aggregator.
func NewAggregator(tradeStore storage.TradeStore, summaryStore storage.PairSummaryStore, portfolioStore storage.PortfolioStore, criteria domain.QualificationCriteria) *Aggregator {
	return &Aggregator{
		tradeStore:     tradeStore,
		summaryStore:   summaryStore,
		portfolioStore: portfolioStore,
		criteria:       criteria,
	}
}

// RunAggregate is the result of aggregating one run.
type RunAggregate struct {
	Summaries []*domain.PairSummary // in pair order, pairs without trades omitted
	Qualified []*domain.PairSummary
	Portfolio *domain.PortfolioSummary // built from qualified pairs' trades
}

// ComputeAggregate loads a run's trades and computes per-pair summaries
// in the given pair order, then the portfolio over qualified pairs.
func (a *Aggregator) ComputeAggregate(ctx context.Context, runID string, pairs []domain.PairParameters) (*RunAggregate, error) {
	trades, err := a.tradeStore.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}

	byPair := make(map[domain.PairKey][]*domain.ClosedTrade)
	for _, t := range trades {
		byPair[t.PairKey()] = append(byPair[t.PairKey()], t)
	}

	a.NoTradePairs = nil
	out := &RunAggregate{}
	var qualifiedTrades []*domain.ClosedTrade
	for _, p := range pairs {
		pairTrades := byPair[p.Key()]
		summary, err := ComputePairSummary(p, pairTrades, a.criteria)
		if errors.Is(err, ErrNoTrades) {
			a.NoTradePairs = append(a.NoTradePairs, p.Name())
			continue
		}
		if err != nil {
			return nil, err
		}
		out.Summaries = append(out.Summaries, summary)
		if summary.Qualified {
			out.Qualified = append(out.Qualified, summary)
			qualifiedTrades = append(qualifiedTrades, pairTrades...)
		}
	}

	out.Portfolio = BuildPortfolio(qualifiedTrades)
	return out, nil
}

// ComputeAndStore computes and persists the aggregate of a run.
// Returns storage.ErrDuplicateKey if the run was already aggregated.
func (a *Aggregator) ComputeAndStore(ctx context.Context, runID string, pairs []domain.PairParameters) (*RunAggregate, error) {
	agg, err := a.ComputeAggregate(ctx, runID, pairs)
	if err != nil {
		return nil, err
	}

	if err := a.summaryStore.InsertBulk(ctx, runID, agg.Summaries); err != nil {
		return nil, fmt.Errorf("store summaries: %w", err)
	}
	if err := a.portfolioStore.Insert(ctx, runID, agg.Portfolio); err != nil {
		return nil, fmt.Errorf("store portfolio: %w", err)
	}
	return agg, nil
}

// NoTradeMessages returns one line per pair without completed trades, sorted.
func (a *Aggregator) NoTradeMessages() []string {
	if len(a.NoTradePairs) == 0 {
		return nil
	}
	names := append([]string(nil), a.NoTradePairs...)
	sort.Strings(names)

	msgs := make([]string, len(names))
	for i, n := range names {
		msgs[i] = fmt.Sprintf("%s: %s", n, ErrNoTrades)
	}
	return msgs
}
