package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Pairs Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: `%s` | Strategy: %s\n\n", r.RunID, r.StrategyID))
	if r.Year != 0 {
		sb.WriteString(fmt.Sprintf("Signals restricted to %d.\n\n", r.Year))
	}

	// Run Summary
	sb.WriteString("## Run Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Pairs | %d |\n", r.PairCount))
	sb.WriteString(fmt.Sprintf("| Closed Trades | %d |\n", r.TradeCount))
	sb.WriteString(fmt.Sprintf("| Qualified Pairs | %d |\n", len(r.Pairs)))
	sb.WriteString("\n")

	// Qualified Pairs
	sb.WriteString("## Qualified Pairs\n\n")
	if len(r.Pairs) > 0 {
		sb.WriteString("| Pair | Beta | Trades | AvgDays | Total% | Avg% | Median% | Win% |")
		for _, year := range r.Years {
			sb.WriteString(fmt.Sprintf(" %d |", year))
		}
		sb.WriteString("\n|------|------|--------|---------|--------|------|---------|------|")
		for range r.Years {
			sb.WriteString("------|")
		}
		sb.WriteString("\n")

		for _, p := range r.Pairs {
			sb.WriteString(fmt.Sprintf("| %s_%s | %s | %d | %s | %s | %s | %s | %s |",
				p.AssetY, p.AssetX, fixed(p.HedgeRatio, 2), p.TotalTrades,
				fixed(p.AvgHoldingDays, 2), fixed(p.TotalReturnPct, 2), fixed(p.AvgReturnPct, 2),
				fixed(p.MedianReturnPct, 2), fixed(p.WinRatePct, 2)))
			for _, year := range r.Years {
				if v, ok := p.YearlyPct[year]; ok {
					sb.WriteString(fmt.Sprintf(" %s |", fixed(v, 2)))
				} else {
					sb.WriteString(" - |")
				}
			}
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString("No pair met the qualification criteria.\n")
	}
	sb.WriteString("\n")

	// Portfolio
	sb.WriteString("## Portfolio\n\n")
	p := r.Portfolio
	if len(p.Days) > 0 {
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Sharpe Ratio | %s |\n", fixed(p.SharpeRatio, 2)))
		sb.WriteString(fmt.Sprintf("| Max Drawdown | %s%% |\n", fixed(p.MaxDrawdown*100, 2)))
		sb.WriteString(fmt.Sprintf("| Total Return | %s%% |\n", fixed(p.TotalReturn*100, 2)))
		sb.WriteString(fmt.Sprintf("| Pairs | %d |\n", p.PairCount))
		sb.WriteString(fmt.Sprintf("| Trades | %d |\n", p.TradeCount))
		sb.WriteString(fmt.Sprintf("| Days | %d (%s to %s) |\n", len(p.Days),
			p.Days[0].Date.Format(time.DateOnly), p.Days[len(p.Days)-1].Date.Format(time.DateOnly)))
	} else {
		sb.WriteString("Portfolio is empty.\n")
	}
	sb.WriteString("\n")

	// Pairs without trades
	if len(r.NoTradePairs) > 0 {
		sb.WriteString("## Pairs Without Trades\n\n")
		for _, name := range r.NoTradePairs {
			sb.WriteString(fmt.Sprintf("- %s: no completed trades\n", name))
		}
		sb.WriteString("\n")
	}

	// Errors
	if len(r.Errors) > 0 {
		sb.WriteString("## Errors\n\n")
		for _, e := range r.Errors {
			sb.WriteString(fmt.Sprintf("- %s\n", e))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// RenderSweepMarkdown renders the entry/exit sensitivity grid as Markdown.
func RenderSweepMarkdown(rows []SweepRow) string {
	var sb strings.Builder

	sb.WriteString("# Z-Score Sensitivity\n\n")
	if len(rows) == 0 {
		sb.WriteString("No sweep cells.\n")
		return sb.String()
	}

	sb.WriteString("| Entry Z | Exit Z | Qualified | Trades | Sharpe | MaxDD% | Total% |\n")
	sb.WriteString("|---------|--------|-----------|--------|--------|--------|--------|\n")
	for _, r := range rows {
		if r.Error != "" {
			sb.WriteString(fmt.Sprintf("| %s | %s | error: %s | | | | |\n",
				fixed(r.EntryZ, 2), fixed(r.ExitZ, 2), r.Error))
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %s | %s | %s |\n",
			fixed(r.EntryZ, 2), fixed(r.ExitZ, 2), r.QualifiedPairs, r.TradeCount,
			fixed(r.SharpeRatio, 2), fixed(r.MaxDrawdown*100, 2), fixed(r.TotalReturn*100, 2)))
	}

	return sb.String()
}
