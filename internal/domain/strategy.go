package domain

// Thresholds configures the z-score signal state machine.
type Thresholds struct {
	EntryZ         float64 // open when |z| crosses above
	ExitZ          float64 // close when |z| falls below
	StopZ          float64 // directional stop-loss
	SafeZ          float64 // guard band: never open at |z| >= SafeZ
	MaxHoldingDays int     // calendar-day time stop
	RollingWindow  int     // z-score lookback
}

// DefaultThresholds returns the research defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		EntryZ:         2.0,
		ExitZ:          0.15,
		StopZ:          3.0,
		SafeZ:          2.5,
		MaxHoldingDays: 90,
		RollingWindow:  60,
	}
}

// QualificationCriteria gates a pair's inclusion in the portfolio.
// All comparisons are strict and must hold together.
type QualificationCriteria struct {
	MinTotalReturnPct  float64
	MinMedianReturnPct float64
	MinWinRatePct      float64
	MaxAvgHoldingDays  float64
	MinTradeCount      int
}

// DefaultQualificationCriteria returns the research defaults.
func DefaultQualificationCriteria() QualificationCriteria {
	return QualificationCriteria{
		MinTotalReturnPct:  100,
		MinMedianReturnPct: 1.5,
		MinWinRatePct:      55,
		MaxAvgHoldingDays:  50,
		MinTradeCount:      30,
	}
}
