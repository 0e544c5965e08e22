package domain

import "time"

// Direction is the side of the spread held by a trade.
type Direction string

// Direction constants
const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// ClosedTrade is a matched entry/exit pair valued against raw prices.
// Immutable once constructed.
type ClosedTrade struct {
	TradeID string // deterministic hash

	EntryDate   time.Time
	ExitDate    time.Time
	HoldingDays int // calendar days, exit - entry

	AssetY     string
	AssetX     string
	HedgeRatio float64
	Direction  Direction
	ExitReason string

	EntryValue float64
	ExitValue  float64
	PnL        float64 // exit_value - entry_value
	ReturnPct  float64 // pnl / |entry_value|, fraction
}

// PairKey returns the identity of the trade's pair.
func (t *ClosedTrade) PairKey() PairKey {
	return PairKey{AssetY: t.AssetY, AssetX: t.AssetX}
}

// PairName returns the canonical "Y_X" pair label.
func (t *ClosedTrade) PairName() string {
	return t.PairKey().Name()
}

// IsWin reports whether the trade return is non-negative.
func (t *ClosedTrade) IsWin() bool {
	return t.ReturnPct >= 0
}
