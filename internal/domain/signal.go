package domain

import "time"

// SignalType is a discrete position transition.
type SignalType string

// Signal type constants. SignalNone marks a date with no new event.
const (
	SignalNone  SignalType = ""
	SignalLong  SignalType = "LONG"
	SignalShort SignalType = "SHORT"
	SignalExit  SignalType = "EXIT"
)

// IsEntry reports whether the signal opens a position.
func (s SignalType) IsEntry() bool {
	return s == SignalLong || s == SignalShort
}

// SignalEvent is the generator output for one date of the z-score domain.
type SignalEvent struct {
	Date   time.Time
	ZScore float64
	Signal SignalType
	Reason string // exit reason, empty for entries and no-ops
}

// Exit reason codes
const (
	ExitReasonStopLoss     = "STOP_LOSS"
	ExitReasonMaxHolding   = "MAX_HOLDING"
	ExitReasonMeanReverted = "MEAN_REVERTED"
)

// FilterEvents drops absent entries, keeping only LONG/SHORT/EXIT markers.
func FilterEvents(events []SignalEvent) []SignalEvent {
	out := make([]SignalEvent, 0, len(events)/4)
	for _, e := range events {
		if e.Signal != SignalNone {
			out = append(out, e)
		}
	}
	return out
}
