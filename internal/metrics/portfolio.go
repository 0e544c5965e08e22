package metrics

import (
	"math"
	"sort"
	"time"

	"pairs-lab/internal/domain"
)

// TradingDaysPerYear annualizes the daily Sharpe ratio.
const TradingDaysPerYear = 252

// dayBucket accumulates per-trade daily contributions for one date.
type dayBucket struct {
	sum   float64
	count int
}

// BuildPortfolio combines trades into an equal-weight daily return curve.
//
// Each trade contributes return_pct/(holding_days+1) to every calendar day
// from entry to exit inclusive. A day's return is the mean contribution
// across trades active that day. Only days with at least one active trade
// appear. An empty input yields a zero summary with NaN Sharpe.
func BuildPortfolio(trades []*domain.ClosedTrade) *domain.PortfolioSummary {
	summary := &domain.PortfolioSummary{SharpeRatio: math.NaN()}
	if len(trades) == 0 {
		return summary
	}

	buckets := make(map[time.Time]*dayBucket)
	pairs := make(map[domain.PairKey]struct{})
	for _, t := range trades {
		pairs[t.PairKey()] = struct{}{}

		span := t.HoldingDays + 1
		contribution := t.ReturnPct / float64(span)
		start := domain.NormalizeDate(t.EntryDate)
		for d := 0; d < span; d++ {
			date := start.AddDate(0, 0, d)
			b, ok := buckets[date]
			if !ok {
				b = &dayBucket{}
				buckets[date] = b
			}
			b.sum += contribution
			b.count++
		}
	}

	dates := make([]time.Time, 0, len(buckets))
	for d := range buckets {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	returns := make([]float64, len(dates))
	cumulative := make([]float64, len(dates))
	daily := make([]domain.PortfolioDailyReturn, len(dates))
	running := 0.0
	for i, d := range dates {
		b := buckets[d]
		r := b.sum / float64(b.count)
		running += r
		returns[i] = r
		cumulative[i] = running
		daily[i] = domain.PortfolioDailyReturn{
			Date:             d,
			Return:           r,
			CumulativeReturn: running,
			ActiveTrades:     b.count,
		}
	}

	summary.Daily = daily
	summary.SharpeRatio = computeSharpe(returns)
	summary.MaxDrawdown = computeMaxDrawdown(cumulative)
	summary.TotalReturn = running
	summary.PairCount = len(pairs)
	summary.TradeCount = len(trades)
	return summary
}
