package strategy

import (
	"context"
	"fmt"
	"time"

	"pairs-lab/internal/domain"
)

// ZScoreStrategy enters on spread dislocation and exits on stop-loss,
// holding-period stop, or mean reversion.
type ZScoreStrategy struct {
	Thresholds domain.Thresholds
}

// NewZScoreStrategy creates a new ZScoreStrategy.
func NewZScoreStrategy(th domain.Thresholds) *ZScoreStrategy {
	return &ZScoreStrategy{Thresholds: th}
}

// ID returns the strategy identifier including parameters.
func (s *ZScoreStrategy) ID() string {
	th := s.Thresholds
	return fmt.Sprintf("ZSCORE_entry%.2f_exit%.2f_stop%.2f_safe%.2f_%dd",
		th.EntryZ, th.ExitZ, th.StopZ, th.SafeZ, th.MaxHoldingDays)
}

// Generate runs the state machine over points in ascending date order.
// A position still open at the end of the series is left open.
func (s *ZScoreStrategy) Generate(_ context.Context, points []domain.ZScorePoint) ([]domain.SignalEvent, error) {
	events := make([]domain.SignalEvent, len(points))

	state := StateFlat
	var entryDate time.Time

	for i, p := range points {
		events[i] = domain.SignalEvent{Date: p.Date, ZScore: p.Value}
		if !p.Defined {
			continue
		}

		days := 0
		if state != StateFlat {
			days = domain.DaysBetween(entryDate, p.Date)
		}

		next, signal, reason := Transition(state, p.Value, days, s.Thresholds)
		if signal.IsEntry() {
			entryDate = p.Date
		}
		events[i].Signal = signal
		events[i].Reason = reason
		state = next
	}

	return events, nil
}

// Ensure ZScoreStrategy implements Strategy
var _ Strategy = (*ZScoreStrategy)(nil)
