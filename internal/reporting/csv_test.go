package reporting

import (
	"strings"
	"testing"
	"time"

	"pairs-lab/internal/domain"
)

func TestRenderTradesCSV(t *testing.T) {
	d0 := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	trades := []*domain.ClosedTrade{
		{
			TradeID: "abc", EntryDate: d0, ExitDate: d0.AddDate(0, 0, 7), HoldingDays: 7,
			AssetY: "KO", AssetX: "PEP", HedgeRatio: 0.9, Direction: domain.DirectionLong,
			ExitReason: domain.ExitReasonMeanReverted,
			EntryValue: -2, ExitValue: -1.5, PnL: 0.5, ReturnPct: 0.25,
		},
	}

	lines := strings.Split(strings.TrimSpace(RenderTradesCSV(trades)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "trade_id,entry_date,exit_date") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	want := "abc,2022-06-01,2022-06-08,7,KO,PEP,0.900000,LONG,MEAN_REVERTED,-2.000000,-1.500000,0.500000,0.250000"
	if lines[1] != want {
		t.Errorf("unexpected row:\n got %s\nwant %s", lines[1], want)
	}
}

func TestRenderPairTableCSV(t *testing.T) {
	report := &Report{
		Years: []int{2021, 2022},
		Pairs: []PairRow{
			{
				AssetY: "KO", AssetX: "PEP", HedgeRatio: 0.9, TotalTrades: 35, AvgHoldingDays: 40,
				TotalReturnPct: 150, AvgReturnPct: 4.29, MedianReturnPct: 2, WinRatePct: 60,
				YearlyPct: map[int]float64{2022: 100.46},
			},
		},
	}

	lines := strings.Split(strings.TrimSpace(RenderPairTableCSV(report)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.HasSuffix(lines[0], "win_rate_pct,2021,2022") {
		t.Errorf("year columns missing from header: %s", lines[0])
	}
	want := "KO,PEP,0.90,35,40.00,150.00,4.29,2.00,60.00,,100.46"
	if lines[1] != want {
		t.Errorf("unexpected row:\n got %s\nwant %s", lines[1], want)
	}
}

func TestRenderPortfolioCSV(t *testing.T) {
	d0 := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	out := RenderPortfolioCSV(PortfolioSection{Days: []PortfolioDayRow{
		{Date: d0, Return: 0.01, CumulativeReturn: 0.01, ActiveTrades: 1},
	}})

	want := "date,daily_return,cumulative_return,active_trades\n2022-06-01,0.01000000,0.01000000,1\n"
	if out != want {
		t.Errorf("unexpected portfolio csv:\n%s", out)
	}
}

func TestRenderSweepCSV(t *testing.T) {
	out := RenderSweepCSV([]SweepRow{{EntryZ: 2, ExitZ: 0.5, RunID: "r", Error: "a, b"}})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[1] != "2.00,0.50,r,0,0,0.00,0.00,0.00,a; b" {
		t.Errorf("unexpected row: %s", lines[1])
	}
}

func TestRenderSignalsCSV(t *testing.T) {
	d0 := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	pair := domain.PairParameters{AssetY: "KO", AssetX: "PEP", HedgeRatio: 0.9}
	events := []domain.SignalEvent{
		{Date: d0, ZScore: 2.1, Signal: domain.SignalShort},
		{Date: d0.AddDate(0, 0, 1), ZScore: 1.0},
		{Date: d0.AddDate(0, 0, 2), ZScore: 0.1, Signal: domain.SignalExit, Reason: domain.ExitReasonMeanReverted},
	}

	lines := strings.Split(strings.TrimSpace(RenderSignalsCSV(pair, events)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[1] != "2022-06-01,KO,PEP,0.900000,2.100000,SHORT," {
		t.Errorf("unexpected entry row: %s", lines[1])
	}
	if lines[2] != "2022-06-03,KO,PEP,0.900000,0.100000,EXIT,MEAN_REVERTED" {
		t.Errorf("unexpected exit row: %s", lines[2])
	}
}

func TestRenderZScoreCSV(t *testing.T) {
	d0 := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	pair := domain.PairParameters{AssetY: "KO", AssetX: "PEP", HedgeRatio: 1}
	points := []domain.ZScorePoint{
		{Date: d0, Spread: 0.5},
		{Date: d0.AddDate(0, 0, 1), Spread: 0.25, Value: -1.5, Defined: true},
	}

	lines := strings.Split(strings.TrimSpace(RenderZScoreCSV(pair, points)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if lines[1] != "2022-06-02,KO,PEP,1.000000,0.250000,-1.500000" {
		t.Errorf("unexpected row: %s", lines[1])
	}
}
