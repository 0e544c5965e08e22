package reporting

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/pipeline"
	"pairs-lab/internal/storage"
	"pairs-lab/internal/storage/memory"
)

var fixedTime = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func testSummaries() []*domain.PairSummary {
	return []*domain.PairSummary{
		{
			AssetY: "XOM", AssetX: "CVX", HedgeRatio: 1.234,
			TotalTrades: 35, AvgHoldingDays: 40.111,
			TotalReturnPct: 150.456, AvgReturnPct: 4.298, MedianReturnPct: 2.005, WinRatePct: 60,
			YearlyReturns: map[int]float64{2021: 0.5, 2022: 1.0046},
			Qualified:     true,
		},
		{
			AssetY: "KO", AssetX: "PEP", HedgeRatio: 0.9,
			TotalTrades: 40, AvgHoldingDays: 12,
			TotalReturnPct: 210, AvgReturnPct: 5.25, MedianReturnPct: 3, WinRatePct: 70,
			YearlyReturns: map[int]float64{2020: 0.7, 2022: 1.4},
			Qualified:     true,
		},
		{
			AssetY: "AAA", AssetX: "BBB", HedgeRatio: 1,
			TotalTrades: 3, WinRatePct: 33.33,
			YearlyReturns: map[int]float64{2019: 0.1},
		},
	}
}

func testPortfolio() *domain.PortfolioSummary {
	d0 := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	return &domain.PortfolioSummary{
		Daily: []domain.PortfolioDailyReturn{
			{Date: d0, Return: 0.01, CumulativeReturn: 0.01, ActiveTrades: 1},
			{Date: d0.AddDate(0, 0, 1), Return: -0.03, CumulativeReturn: -0.02, ActiveTrades: 2},
		},
		SharpeRatio: 1.2345,
		MaxDrawdown: -0.03,
		TotalReturn: -0.02,
		PairCount:   2,
		TradeCount:  75,
	}
}

func setupStores(t *testing.T) (*memory.RunStore, *memory.PairSummaryStore, *memory.PortfolioStore) {
	t.Helper()
	ctx := context.Background()

	runStore := memory.NewRunStore()
	summaryStore := memory.NewPairSummaryStore()
	portfolioStore := memory.NewPortfolioStore()

	if err := runStore.Insert(ctx, &storage.RunRecord{
		RunID: "run-1", StrategyID: "ZSCORE_E2.00_X0.15", ParamsID: "p", Year: 2022,
		StartedAt: fixedTime, PairCount: 3, TradeCount: 78, QualifiedCount: 2,
	}); err != nil {
		t.Fatalf("Insert run failed: %v", err)
	}
	if err := summaryStore.InsertBulk(ctx, "run-1", testSummaries()); err != nil {
		t.Fatalf("Insert summaries failed: %v", err)
	}
	if err := portfolioStore.Insert(ctx, "run-1", testPortfolio()); err != nil {
		t.Fatalf("Insert portfolio failed: %v", err)
	}
	return runStore, summaryStore, portfolioStore
}

func TestGenerate_FromStores(t *testing.T) {
	runStore, summaryStore, portfolioStore := setupStores(t)
	generator := NewGenerator(runStore, summaryStore, portfolioStore).WithClock(func() time.Time { return fixedTime })

	report, err := generator.Generate(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !report.GeneratedAt.Equal(fixedTime) {
		t.Errorf("GeneratedAt: expected %v, got %v", fixedTime, report.GeneratedAt)
	}
	if report.Year != 2022 || report.PairCount != 3 || report.TradeCount != 78 {
		t.Errorf("unexpected run metadata: %+v", report)
	}

	// Only qualified pairs, sorted by (asset_y, asset_x).
	if len(report.Pairs) != 2 {
		t.Fatalf("expected 2 pair rows, got %d", len(report.Pairs))
	}
	if report.Pairs[0].AssetY != "KO" || report.Pairs[1].AssetY != "XOM" {
		t.Errorf("unexpected pair order: %s, %s", report.Pairs[0].AssetY, report.Pairs[1].AssetY)
	}

	xom := report.Pairs[1]
	if xom.HedgeRatio != 1.23 || xom.AvgHoldingDays != 40.11 || xom.TotalReturnPct != 150.46 || xom.MedianReturnPct != 2.01 {
		t.Errorf("values not rounded to 2 decimals: %+v", xom)
	}
	if xom.YearlyPct[2022] != 100.46 || xom.YearlyPct[2021] != 50 {
		t.Errorf("yearly returns not scaled: %v", xom.YearlyPct)
	}

	wantYears := []int{2020, 2021, 2022}
	if len(report.Years) != len(wantYears) {
		t.Fatalf("Years: expected %v, got %v", wantYears, report.Years)
	}
	for i := range wantYears {
		if report.Years[i] != wantYears[i] {
			t.Errorf("Years: expected %v, got %v", wantYears, report.Years)
		}
	}

	if len(report.Portfolio.Days) != 2 || report.Portfolio.TradeCount != 75 {
		t.Errorf("unexpected portfolio: %+v", report.Portfolio)
	}
}

func TestGenerate_UnknownRun(t *testing.T) {
	runStore, summaryStore, portfolioStore := setupStores(t)
	generator := NewGenerator(runStore, summaryStore, portfolioStore)

	_, err := generator.Generate(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFromRunResult(t *testing.T) {
	summaries := testSummaries()
	result := &pipeline.RunResult{
		RunID:      "run-2",
		StrategyID: "ZSCORE",
		Pairs: []*pipeline.PairResult{
			{Pair: domain.PairParameters{AssetY: "KO", AssetX: "PEP"}, Trades: make([]*domain.ClosedTrade, 4)},
			{Pair: domain.PairParameters{AssetY: "NO", AssetX: "TRD"}},
		},
		Summaries:    summaries,
		Qualified:    summaries[:2],
		Portfolio:    testPortfolio(),
		NoTradePairs: []string{"NO_TRD"},
		Errors:       []string{"ZZ_YY: missing price"},
	}

	report := NewGenerator(nil, nil, nil).WithClock(func() time.Time { return fixedTime }).FromRunResult(result)

	if report.PairCount != 2 || report.TradeCount != 4 {
		t.Errorf("unexpected counts: pairs=%d trades=%d", report.PairCount, report.TradeCount)
	}
	if len(report.Pairs) != 2 {
		t.Errorf("expected 2 qualified rows, got %d", len(report.Pairs))
	}
	if len(report.NoTradePairs) != 1 || len(report.Errors) != 1 {
		t.Errorf("expected no-trade pairs and errors to be carried over")
	}

	md := RenderMarkdown(report)
	for _, want := range []string{
		"# Pairs Backtest Report",
		"## Qualified Pairs",
		"| KO_PEP | 0.90 | 40 |",
		"| Sharpe Ratio | 1.23 |",
		"| Max Drawdown | -3.00% |",
		"| Total Return | -2.00% |",
		"- NO_TRD: no completed trades",
		"## Errors",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderMarkdown_EmptyRun(t *testing.T) {
	report := &Report{GeneratedAt: fixedTime, RunID: "run-0", Portfolio: PortfolioSection{SharpeRatio: math.NaN()}}

	md := RenderMarkdown(report)
	if !strings.Contains(md, "No pair met the qualification criteria.") {
		t.Error("missing empty pair table message")
	}
	if !strings.Contains(md, "Portfolio is empty.") {
		t.Error("missing empty portfolio message")
	}
	if strings.Contains(md, "## Errors") {
		t.Error("unexpected errors section")
	}
}

func TestSweepRows(t *testing.T) {
	cells := []pipeline.SweepCell{
		{EntryZ: 1.5, ExitZ: 0.1, RunID: "a", QualifiedPairs: 2, TradeCount: 80, SharpeRatio: 1.1, MaxDrawdown: -0.1, TotalReturn: 0.5},
		{EntryZ: 1.5, ExitZ: 0.3, Err: errors.New("boom")},
	}

	rows := SweepRows(cells)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1].Error != "boom" {
		t.Errorf("expected error to be carried, got %q", rows[1].Error)
	}

	md := RenderSweepMarkdown(rows)
	if !strings.Contains(md, "| 1.50 | 0.10 | 2 | 80 | 1.10 | -10.00 | 50.00 |") {
		t.Errorf("unexpected sweep markdown:\n%s", md)
	}
	if !strings.Contains(md, "error: boom") {
		t.Error("failed cell not rendered")
	}
}
