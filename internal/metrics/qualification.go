package metrics

import (
	"errors"

	"pairs-lab/internal/domain"
)

// ErrNoTrades is returned when a pair has no completed trades.
var ErrNoTrades = errors.New("no completed trades")

// ComputePairSummary calculates statistics for one pair and applies the
// qualification filter. Returns ErrNoTrades if trades is empty.
func ComputePairSummary(pair domain.PairParameters, trades []*domain.ClosedTrade, criteria domain.QualificationCriteria) (*domain.PairSummary, error) {
	summary := computePairSummary(pair, trades)
	if summary == nil {
		return nil, ErrNoTrades
	}
	summary.Qualified = Qualifies(summary, criteria)
	return summary, nil
}

// Qualifies reports whether a summary passes every criterion.
// All comparisons are strict.
func Qualifies(s *domain.PairSummary, c domain.QualificationCriteria) bool {
	return s.TotalReturnPct > c.MinTotalReturnPct &&
		s.MedianReturnPct > c.MinMedianReturnPct &&
		s.WinRatePct > c.MinWinRatePct &&
		s.AvgHoldingDays < c.MaxAvgHoldingDays &&
		s.TotalTrades > c.MinTradeCount
}

// FilterQualified keeps qualified summaries in their input order.
func FilterQualified(summaries []*domain.PairSummary) []*domain.PairSummary {
	var out []*domain.PairSummary
	for _, s := range summaries {
		if s.Qualified {
			out = append(out, s)
		}
	}
	return out
}
