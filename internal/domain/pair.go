package domain

import "fmt"

// PairParameters identifies a cointegrated pair and its hedge ratio.
// Produced upstream (regression + residual stationarity test); not re-validated here.
type PairParameters struct {
	AssetY     string  // dependent leg
	AssetX     string  // hedge leg
	HedgeRatio float64 // beta applied to log(X)
}

// PairKey identifies a pair by its two legs. Use it for lookups; the
// "Y_X" label is ambiguous when tickers contain underscores.
type PairKey struct {
	AssetY string
	AssetX string
}

// Name returns the "Y_X" display label.
func (k PairKey) Name() string {
	return fmt.Sprintf("%s_%s", k.AssetY, k.AssetX)
}

// Key returns the pair's identity.
func (p PairParameters) Key() PairKey {
	return PairKey{AssetY: p.AssetY, AssetX: p.AssetX}
}

// Name returns the canonical "Y_X" pair label.
func (p PairParameters) Name() string {
	return p.Key().Name()
}

// PairSummary holds per-pair backtest statistics.
// Percent fields are already multiplied by 100.
type PairSummary struct {
	AssetY     string
	AssetX     string
	HedgeRatio float64

	TotalTrades     int
	AvgHoldingDays  float64
	TotalReturnPct  float64 // sum of per-trade returns
	AvgReturnPct    float64
	MedianReturnPct float64
	WinRatePct      float64 // share of trades with return >= 0

	// YearlyReturns maps entry year to summed return_pct (fraction, not percent).
	YearlyReturns map[int]float64

	Qualified bool
}

// Key returns the pair's identity.
func (s *PairSummary) Key() PairKey {
	return PairKey{AssetY: s.AssetY, AssetX: s.AssetX}
}

// Name returns the canonical "Y_X" pair label.
func (s *PairSummary) Name() string {
	return s.Key().Name()
}
