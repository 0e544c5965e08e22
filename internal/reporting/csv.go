package reporting

import (
	"fmt"
	"strings"
	"time"

	"pairs-lab/internal/domain"
)

// RenderTradesCSV renders closed trades as CSV string, one row per trade in input order.
func RenderTradesCSV(trades []*domain.ClosedTrade) string {
	var sb strings.Builder

	sb.WriteString("trade_id,entry_date,exit_date,holding_days,asset_y,asset_x,hedge_ratio,")
	sb.WriteString("direction,exit_reason,entry_value,exit_value,pnl,return_pct\n")

	for _, t := range trades {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%d,%s,%s,%.6f,%s,%s,%.6f,%.6f,%.6f,%.6f\n",
			t.TradeID,
			t.EntryDate.Format(time.DateOnly),
			t.ExitDate.Format(time.DateOnly),
			t.HoldingDays,
			t.AssetY,
			t.AssetX,
			t.HedgeRatio,
			t.Direction,
			t.ExitReason,
			t.EntryValue,
			t.ExitValue,
			t.PnL,
			t.ReturnPct,
		))
	}

	return sb.String()
}

// RenderPairTableCSV renders the qualifying pairs with one column per year.
// Missing years render as empty cells.
func RenderPairTableCSV(r *Report) string {
	var sb strings.Builder

	sb.WriteString("asset_y,asset_x,hedge_ratio,total_trades,avg_holding_days,")
	sb.WriteString("total_return_pct,avg_return_pct,median_return_pct,win_rate_pct")
	for _, year := range r.Years {
		sb.WriteString(fmt.Sprintf(",%d", year))
	}
	sb.WriteString("\n")

	for _, p := range r.Pairs {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%d,%s,%s,%s,%s,%s",
			p.AssetY,
			p.AssetX,
			fixed(p.HedgeRatio, 2),
			p.TotalTrades,
			fixed(p.AvgHoldingDays, 2),
			fixed(p.TotalReturnPct, 2),
			fixed(p.AvgReturnPct, 2),
			fixed(p.MedianReturnPct, 2),
			fixed(p.WinRatePct, 2),
		))
		for _, year := range r.Years {
			sb.WriteString(",")
			if v, ok := p.YearlyPct[year]; ok {
				sb.WriteString(fixed(v, 2))
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// RenderPortfolioCSV renders the daily and cumulative portfolio returns.
func RenderPortfolioCSV(p PortfolioSection) string {
	var sb strings.Builder

	sb.WriteString("date,daily_return,cumulative_return,active_trades\n")
	for _, d := range p.Days {
		sb.WriteString(fmt.Sprintf("%s,%.8f,%.8f,%d\n",
			d.Date.Format(time.DateOnly),
			d.Return,
			d.CumulativeReturn,
			d.ActiveTrades,
		))
	}

	return sb.String()
}

// RenderSweepCSV renders the sensitivity grid.
func RenderSweepCSV(rows []SweepRow) string {
	var sb strings.Builder

	sb.WriteString("entry_z,exit_z,run_id,qualified_pairs,trade_count,sharpe_ratio,max_drawdown_pct,total_return_pct,error\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%d,%d,%s,%s,%s,%s\n",
			fixed(r.EntryZ, 2),
			fixed(r.ExitZ, 2),
			r.RunID,
			r.QualifiedPairs,
			r.TradeCount,
			fixed(r.SharpeRatio, 2),
			fixed(r.MaxDrawdown*100, 2),
			fixed(r.TotalReturn*100, 2),
			strings.ReplaceAll(r.Error, ",", ";"),
		))
	}

	return sb.String()
}

// RenderSignalsCSV renders one pair's LONG/SHORT/EXIT markers.
func RenderSignalsCSV(pair domain.PairParameters, events []domain.SignalEvent) string {
	var sb strings.Builder

	sb.WriteString("date,asset_y,asset_x,hedge_ratio,z_score,signal,reason\n")
	for _, e := range events {
		if e.Signal == domain.SignalNone {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%.6f,%.6f,%s,%s\n",
			e.Date.Format(time.DateOnly),
			pair.AssetY,
			pair.AssetX,
			pair.HedgeRatio,
			e.ZScore,
			e.Signal,
			e.Reason,
		))
	}

	return sb.String()
}

// RenderZScoreCSV renders a z-score snapshot. Undefined points are skipped.
func RenderZScoreCSV(pair domain.PairParameters, points []domain.ZScorePoint) string {
	var sb strings.Builder

	sb.WriteString("date,asset_y,asset_x,hedge_ratio,spread,z_score\n")
	for _, p := range points {
		if !p.Defined {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%.6f,%.6f,%.6f\n",
			p.Date.Format(time.DateOnly),
			pair.AssetY,
			pair.AssetX,
			pair.HedgeRatio,
			p.Spread,
			p.Value,
		))
	}

	return sb.String()
}
