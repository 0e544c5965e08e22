package domain

import "time"

// PortfolioDailyReturn is one row of the equal-weight portfolio curve.
type PortfolioDailyReturn struct {
	Date             time.Time
	Return           float64 // mean contribution across active trades
	CumulativeReturn float64 // running sum of Return
	ActiveTrades     int
}

// PortfolioSummary holds the portfolio curve and its risk statistics.
type PortfolioSummary struct {
	Daily       []PortfolioDailyReturn
	SharpeRatio float64 // NaN when undefined
	MaxDrawdown float64 // non-positive
	TotalReturn float64 // last cumulative value
	PairCount   int
	TradeCount  int
}
