package verification

import (
	"context"
	"errors"
	"fmt"

	"pairs-lab/internal/backtest"
	"pairs-lab/internal/domain"
	"pairs-lab/internal/idhash"
	"pairs-lab/internal/storage"
	"pairs-lab/internal/strategy"
)

var (
	// ErrTradeNotFound is returned when a trade ID is not part of the run.
	ErrTradeNotFound = errors.New("trade not found")

	// ErrParamsMismatch is returned when the verifier's thresholds differ
	// from the ones the run was produced with.
	ErrParamsMismatch = errors.New("thresholds do not match run parameters")
)

// ReplayVerifier re-runs the per-pair backtest for a stored run.
type ReplayVerifier struct {
	runStore   storage.RunStore
	tradeStore storage.TradeStore
	priceStore storage.PriceHistoryStore
	thresholds domain.Thresholds
}

// ReplayVerifierOptions contains configuration for creating a ReplayVerifier.
type ReplayVerifierOptions struct {
	RunStore   storage.RunStore
	TradeStore storage.TradeStore
	PriceStore storage.PriceHistoryStore
	Thresholds domain.Thresholds
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(opts ReplayVerifierOptions) *ReplayVerifier {
	return &ReplayVerifier{
		runStore:   opts.RunStore,
		tradeStore: opts.TradeStore,
		priceStore: opts.PriceStore,
		thresholds: opts.Thresholds,
	}
}

// replayer caches one replay per pair.
type replayer struct {
	runner *backtest.Runner
	cache  map[domain.PairKey]map[string]*domain.ClosedTrade // pair -> trade ID -> trade
	order  map[domain.PairKey][]string                      // pair -> replayed trade IDs in order
}

func (v *ReplayVerifier) newReplayer(ctx context.Context, run *storage.RunRecord) (*replayer, error) {
	if run.ParamsID != idhash.ComputeParamsID(v.thresholds) {
		return nil, fmt.Errorf("%w: run %s has params %s", ErrParamsMismatch, run.RunID, run.ParamsID)
	}

	strat, err := strategy.FromThresholds(v.thresholds)
	if err != nil {
		return nil, err
	}

	history, err := v.priceStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load price history: %w", err)
	}

	return &replayer{
		runner: backtest.NewRunner(backtest.RunnerOptions{
			History:       history,
			Strategy:      strat,
			RollingWindow: v.thresholds.RollingWindow,
			Year:          run.Year,
		}),
		cache: make(map[domain.PairKey]map[string]*domain.ClosedTrade),
		order: make(map[domain.PairKey][]string),
	}, nil
}

func (r *replayer) pairTrades(ctx context.Context, t *domain.ClosedTrade) (map[string]*domain.ClosedTrade, error) {
	pair := domain.PairParameters{AssetY: t.AssetY, AssetX: t.AssetX, HedgeRatio: t.HedgeRatio}
	if trades, ok := r.cache[pair.Key()]; ok {
		return trades, nil
	}

	res, err := r.runner.Run(ctx, pair)
	if err != nil {
		return nil, err
	}

	trades := make(map[string]*domain.ClosedTrade, len(res.Trades))
	ids := make([]string, 0, len(res.Trades))
	for _, rt := range res.Trades {
		trades[rt.TradeID] = rt
		ids = append(ids, rt.TradeID)
	}
	r.cache[pair.Key()] = trades
	r.order[pair.Key()] = ids
	return trades, nil
}

func (r *replayer) verify(ctx context.Context, stored *domain.ClosedTrade) VerificationResult {
	result := VerificationResult{
		TradeID:         stored.TradeID,
		Pair:            stored.PairName(),
		StoredReturnPct: stored.ReturnPct,
	}

	replayed, err := r.pairTrades(ctx, stored)
	if err != nil {
		result.Divergences = []FieldDivergence{{Field: "Error", Actual: err.Error()}}
		return result
	}

	rt, ok := replayed[stored.TradeID]
	if !ok {
		result.Divergences = []FieldDivergence{{Field: "TradeID", Expected: stored.TradeID, Actual: nil}}
		return result
	}

	result.Divergences = CompareClosedTrades(stored, rt)
	result.Match = len(result.Divergences) == 0
	result.ReplayedReturnPct = rt.ReturnPct
	return result
}

// VerifyTrade verifies a single trade of a run.
func (v *ReplayVerifier) VerifyTrade(ctx context.Context, runID, tradeID string) (*VerificationResult, error) {
	run, err := v.runStore.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}

	trades, err := v.tradeStore.GetByRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	var stored *domain.ClosedTrade
	for _, t := range trades {
		if t.TradeID == tradeID {
			stored = t
			break
		}
	}
	if stored == nil {
		return nil, ErrTradeNotFound
	}

	r, err := v.newReplayer(ctx, run)
	if err != nil {
		return nil, err
	}
	result := r.verify(ctx, stored)
	return &result, nil
}

// VerifyRun verifies every stored trade of a run and reports replayed
// trades that were never stored.
func (v *ReplayVerifier) VerifyRun(ctx context.Context, runID string) (*VerificationReport, error) {
	run, err := v.runStore.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}

	trades, err := v.tradeStore.GetByRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	r, err := v.newReplayer(ctx, run)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{
		RunID:       runID,
		TotalTrades: len(trades),
		Results:     make([]VerificationResult, 0, len(trades)),
	}

	storedIDs := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		storedIDs[t.TradeID] = struct{}{}

		result := r.verify(ctx, t)
		report.Results = append(report.Results, result)
		if result.Match {
			report.MatchedTrades++
		} else {
			report.DivergentTrades++
		}
	}

	// Pairs are visited in stored-trade order so the extra list is deterministic.
	seen := make(map[domain.PairKey]bool)
	for _, t := range trades {
		key := t.PairKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		for _, id := range r.order[key] {
			if _, ok := storedIDs[id]; !ok {
				report.ExtraTrades = append(report.ExtraTrades, id)
			}
		}
	}

	return report, nil
}
