package domain

import "time"

// PricePoint is a single close price observation for one asset.
type PricePoint struct {
	Date  time.Time // trading day, UTC midnight
	Value float64   // close price
}

// PriceSeries is an ordered-by-date close price history for one asset.
// Dates are unique; non-trading days are simply absent.
type PriceSeries struct {
	Asset  string
	Points []PricePoint
}

// Len returns the number of observations.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Points)
}

// PriceHistory maps asset identifier to its price series.
// Shared read-only across all pairs.
type PriceHistory map[string]*PriceSeries

// Assets returns the asset identifiers present in the history.
func (h PriceHistory) Assets() []string {
	out := make([]string, 0, len(h))
	for asset := range h {
		out = append(out, asset)
	}
	return out
}

// ZScorePoint is one observation of a rolling z-score.
// Defined is false inside the warm-up window and wherever the rolling
// standard deviation is zero or undefined.
type ZScorePoint struct {
	Date    time.Time
	Spread  float64
	Value   float64
	Defined bool
}

// NormalizeDate truncates t to UTC midnight.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns whole calendar days from start to end.
func DaysBetween(start, end time.Time) int {
	return int(NormalizeDate(end).Sub(NormalizeDate(start)).Hours() / 24)
}
