package reporting

import "time"

// Report is the research summary of one pipeline run.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string
	StrategyID  string
	Year        int // 0 for full history

	PairCount    int
	TradeCount   int
	Years        []int // yearly columns of the pair table, ascending
	Pairs        []PairRow
	Portfolio    PortfolioSection
	NoTradePairs []string
	Errors       []string
}

// PairRow is one qualifying pair. Values are percentages rounded to 2 decimals.
type PairRow struct {
	AssetY          string
	AssetX          string
	HedgeRatio      float64
	TotalTrades     int
	AvgHoldingDays  float64
	TotalReturnPct  float64
	AvgReturnPct    float64
	MedianReturnPct float64
	WinRatePct      float64
	YearlyPct       map[int]float64 // entry year -> summed return x100
}

// PortfolioSection holds the portfolio headline numbers and its curve.
type PortfolioSection struct {
	SharpeRatio float64 // NaN when undefined
	MaxDrawdown float64
	TotalReturn float64
	PairCount   int
	TradeCount  int
	Days        []PortfolioDayRow
}

// PortfolioDayRow is one date of the equal-weight portfolio.
type PortfolioDayRow struct {
	Date             time.Time
	Return           float64
	CumulativeReturn float64
	ActiveTrades     int
}

// SweepRow is one cell of the entry/exit sensitivity grid.
type SweepRow struct {
	EntryZ         float64
	ExitZ          float64
	RunID          string
	QualifiedPairs int
	TradeCount     int
	SharpeRatio    float64
	MaxDrawdown    float64
	TotalReturn    float64
	Error          string
}
