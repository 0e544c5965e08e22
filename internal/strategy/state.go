package strategy

import (
	"math"

	"pairs-lab/internal/domain"
)

// State is the position held while walking one pair's z-score series.
type State int

// Position states.
const (
	StateFlat State = iota
	StateLong
	StateShort
)

func (s State) String() string {
	switch s {
	case StateLong:
		return "LONG"
	case StateShort:
		return "SHORT"
	default:
		return "FLAT"
	}
}

// Transition is the pure step function of the signal state machine.
// It maps (state, z, days in trade) to the next state and the event emitted.
// Callers handle undefined z-scores before calling: they never trigger a move.
//
// From FLAT, entries use strict inequalities and the SafeZ guard band:
//
//	EntryZ < z < SafeZ    -> SHORT
//	-SafeZ < z < -EntryZ  -> LONG
//
// From LONG/SHORT, exits are checked in order and the first match wins:
// directional stop-loss, holding-period stop, mean reversion.
func Transition(state State, z float64, daysInTrade int, th domain.Thresholds) (State, domain.SignalType, string) {
	if state == StateFlat {
		switch {
		case z > th.EntryZ && z < th.SafeZ:
			return StateShort, domain.SignalShort, ""
		case z < -th.EntryZ && z > -th.SafeZ:
			return StateLong, domain.SignalLong, ""
		default:
			return StateFlat, domain.SignalNone, ""
		}
	}

	switch {
	case state == StateLong && z < -th.StopZ:
		return StateFlat, domain.SignalExit, domain.ExitReasonStopLoss
	case state == StateShort && z > th.StopZ:
		return StateFlat, domain.SignalExit, domain.ExitReasonStopLoss
	case daysInTrade >= th.MaxHoldingDays:
		return StateFlat, domain.SignalExit, domain.ExitReasonMaxHolding
	case math.Abs(z) < th.ExitZ:
		return StateFlat, domain.SignalExit, domain.ExitReasonMeanReverted
	default:
		return state, domain.SignalNone, ""
	}
}
