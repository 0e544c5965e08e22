package metrics

import (
	"math"
	"sort"

	"pairs-lab/internal/domain"
)

// computePairSummary calculates per-pair statistics from a pair's trades.
// Percent fields are multiplied by 100; YearlyReturns stays a fraction.
// Returns nil for an empty slice.
func computePairSummary(pair domain.PairParameters, trades []*domain.ClosedTrade) *domain.PairSummary {
	n := len(trades)
	if n == 0 {
		return nil
	}

	returns := make([]float64, n)
	holding := make([]float64, n)
	wins := 0
	yearly := make(map[int]float64)
	for i, t := range trades {
		returns[i] = t.ReturnPct
		holding[i] = float64(t.HoldingDays)
		if t.IsWin() {
			wins++
		}
		yearly[t.EntryDate.Year()] += t.ReturnPct
	}

	sorted := make([]float64, n)
	copy(sorted, returns)
	sort.Float64s(sorted)

	return &domain.PairSummary{
		AssetY:     pair.AssetY,
		AssetX:     pair.AssetX,
		HedgeRatio: pair.HedgeRatio,

		TotalTrades:     n,
		AvgHoldingDays:  computeMean(holding),
		TotalReturnPct:  computeSum(returns) * 100,
		AvgReturnPct:    computeMean(returns) * 100,
		MedianReturnPct: computePercentile(sorted, 0.50) * 100,
		WinRatePct:      computeWinRate(wins, n) * 100,
		YearlyReturns:   yearly,
	}
}

// computeWinRate calculates win rate as wins / total.
func computeWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

func computeSum(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum
}

// computeMean calculates the arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return computeSum(values) / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
// Returns NaN for fewer than 2 samples.
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return math.NaN()
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computePercentile uses linear interpolation.
// sorted must be pre-sorted ASC. p=0.5 yields the conventional median.
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// computeMaxDrawdown returns min(cumulative - running peak) over a
// cumulative series. The result is zero or negative.
func computeMaxDrawdown(cumulative []float64) float64 {
	if len(cumulative) == 0 {
		return 0
	}

	peak := math.Inf(-1)
	maxDrawdown := 0.0
	for _, c := range cumulative {
		if c > peak {
			peak = c
		}
		if dd := c - peak; dd < maxDrawdown {
			maxDrawdown = dd
		}
	}
	return maxDrawdown
}

// computeSharpe annualizes mean/std of daily returns with sqrt(252).
// Returns NaN when std is zero or undefined.
func computeSharpe(daily []float64) float64 {
	mean := computeMean(daily)
	std := computeStddev(daily, mean)
	if math.IsNaN(std) || std == 0 {
		return math.NaN()
	}
	return math.Sqrt(TradingDaysPerYear) * mean / std
}
