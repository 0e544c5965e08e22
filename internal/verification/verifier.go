// Package verification replays stored runs and checks that every closed
// trade is reproduced from the stored price history.
package verification

import (
	"math"
	"time"

	"pairs-lab/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string // field name
	Expected any    // stored value
	Actual   any    // replayed value
}

// VerificationResult contains the result of verifying a single trade.
type VerificationResult struct {
	TradeID           string
	Pair              string
	Match             bool
	Divergences       []FieldDivergence
	StoredReturnPct   float64
	ReplayedReturnPct float64
}

// VerificationReport contains results for one run.
type VerificationReport struct {
	RunID           string
	TotalTrades     int // stored trades verified
	MatchedTrades   int
	DivergentTrades int
	ExtraTrades     []string // replayed trade IDs absent from the store
	Results         []VerificationResult
}

// OK reports whether the run reproduced exactly.
func (r *VerificationReport) OK() bool {
	return r.DivergentTrades == 0 && len(r.ExtraTrades) == 0
}

// CompareClosedTrades compares two closed trades and returns divergences.
// Uses FloatTolerance for float64 comparisons.
func CompareClosedTrades(stored, replayed *domain.ClosedTrade) []FieldDivergence {
	var divergences []FieldDivergence

	addString := func(field, expected, actual string) {
		if expected != actual {
			divergences = append(divergences, FieldDivergence{Field: field, Expected: expected, Actual: actual})
		}
	}
	addFloat := func(field string, expected, actual float64) {
		if !floatEquals(expected, actual) {
			divergences = append(divergences, FieldDivergence{Field: field, Expected: expected, Actual: actual})
		}
	}
	addDate := func(field string, expected, actual time.Time) {
		if !expected.Equal(actual) {
			divergences = append(divergences, FieldDivergence{Field: field, Expected: expected, Actual: actual})
		}
	}

	// Identity
	addString("TradeID", stored.TradeID, replayed.TradeID)
	addString("AssetY", stored.AssetY, replayed.AssetY)
	addString("AssetX", stored.AssetX, replayed.AssetX)
	addFloat("HedgeRatio", stored.HedgeRatio, replayed.HedgeRatio)
	addString("Direction", string(stored.Direction), string(replayed.Direction))

	// Timing
	addDate("EntryDate", stored.EntryDate, replayed.EntryDate)
	addDate("ExitDate", stored.ExitDate, replayed.ExitDate)
	if stored.HoldingDays != replayed.HoldingDays {
		divergences = append(divergences, FieldDivergence{Field: "HoldingDays", Expected: stored.HoldingDays, Actual: replayed.HoldingDays})
	}
	addString("ExitReason", stored.ExitReason, replayed.ExitReason)

	// Valuation
	addFloat("EntryValue", stored.EntryValue, replayed.EntryValue)
	addFloat("ExitValue", stored.ExitValue, replayed.ExitValue)
	addFloat("PnL", stored.PnL, replayed.PnL)
	addFloat("ReturnPct", stored.ReturnPct, replayed.ReturnPct)

	return divergences
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}
