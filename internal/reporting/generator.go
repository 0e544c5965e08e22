package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/pipeline"
	"pairs-lab/internal/storage"
)

// Generator produces reports from stored run data.
type Generator struct {
	runStore       storage.RunStore
	summaryStore   storage.PairSummaryStore
	portfolioStore storage.PortfolioStore
	now            func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(
	runStore storage.RunStore,
	summaryStore storage.PairSummaryStore,
	portfolioStore storage.PortfolioStore,
) *Generator {
	return &Generator{
		runStore:       runStore,
		summaryStore:   summaryStore,
		portfolioStore: portfolioStore,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the report of a stored run.
func (g *Generator) Generate(ctx context.Context, runID string) (*Report, error) {
	run, err := g.runStore.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	qualified, err := g.summaryStore.GetQualified(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load qualified pairs: %w", err)
	}

	portfolio, err := g.portfolioStore.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load portfolio: %w", err)
	}

	r := &Report{
		GeneratedAt: g.now(),
		RunID:       run.RunID,
		StrategyID:  run.StrategyID,
		Year:        run.Year,
		PairCount:   run.PairCount,
		TradeCount:  run.TradeCount,
	}
	fillPairs(r, qualified)
	fillPortfolio(r, portfolio)
	return r, nil
}

// FromRunResult builds the report of an in-process run, including the
// pairs without trades and per-pair failures.
func (g *Generator) FromRunResult(result *pipeline.RunResult) *Report {
	r := &Report{
		GeneratedAt:  g.now(),
		RunID:        result.RunID,
		StrategyID:   result.StrategyID,
		Year:         result.Year,
		PairCount:    len(result.Pairs),
		TradeCount:   len(result.Trades()),
		NoTradePairs: append([]string(nil), result.NoTradePairs...),
		Errors:       append([]string(nil), result.Errors...),
	}
	fillPairs(r, result.Qualified)
	fillPortfolio(r, result.Portfolio)
	return r
}

func fillPairs(r *Report, summaries []*domain.PairSummary) {
	years := make(map[int]struct{})
	rows := make([]PairRow, 0, len(summaries))

	for _, s := range summaries {
		row := PairRow{
			AssetY:          s.AssetY,
			AssetX:          s.AssetX,
			HedgeRatio:      round2(s.HedgeRatio),
			TotalTrades:     s.TotalTrades,
			AvgHoldingDays:  round2(s.AvgHoldingDays),
			TotalReturnPct:  round2(s.TotalReturnPct),
			AvgReturnPct:    round2(s.AvgReturnPct),
			MedianReturnPct: round2(s.MedianReturnPct),
			WinRatePct:      round2(s.WinRatePct),
			YearlyPct:       make(map[int]float64, len(s.YearlyReturns)),
		}
		for year, ret := range s.YearlyReturns {
			row.YearlyPct[year] = round2(ret * 100)
			years[year] = struct{}{}
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].AssetY != rows[j].AssetY {
			return rows[i].AssetY < rows[j].AssetY
		}
		return rows[i].AssetX < rows[j].AssetX
	})

	r.Pairs = rows
	r.Years = make([]int, 0, len(years))
	for year := range years {
		r.Years = append(r.Years, year)
	}
	sort.Ints(r.Years)
}

func fillPortfolio(r *Report, p *domain.PortfolioSummary) {
	if p == nil {
		return
	}
	r.Portfolio = PortfolioSection{
		SharpeRatio: p.SharpeRatio,
		MaxDrawdown: p.MaxDrawdown,
		TotalReturn: p.TotalReturn,
		PairCount:   p.PairCount,
		TradeCount:  p.TradeCount,
		Days:        make([]PortfolioDayRow, len(p.Daily)),
	}
	for i, d := range p.Daily {
		r.Portfolio.Days[i] = PortfolioDayRow(d)
	}
}

// SweepRows converts sweep cells into report rows, keeping their order.
func SweepRows(cells []pipeline.SweepCell) []SweepRow {
	rows := make([]SweepRow, len(cells))
	for i, c := range cells {
		rows[i] = SweepRow{
			EntryZ:         c.EntryZ,
			ExitZ:          c.ExitZ,
			RunID:          c.RunID,
			QualifiedPairs: c.QualifiedPairs,
			TradeCount:     c.TradeCount,
			SharpeRatio:    c.SharpeRatio,
			MaxDrawdown:    c.MaxDrawdown,
			TotalReturn:    c.TotalReturn,
		}
		if c.Err != nil {
			rows[i].Error = c.Err.Error()
		}
	}
	return rows
}
