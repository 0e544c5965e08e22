package backtest

import (
	"context"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/strategy"
)

// ReplayStrategy replays pre-recorded signals instead of computing them.
// Events are matched to z-score points by date; dates without a recorded
// signal produce SignalNone.
type ReplayStrategy struct {
	recorded map[string]domain.SignalEvent
	name     string
}

// NewReplayStrategy creates a strategy that replays events.
func NewReplayStrategy(name string, events []domain.SignalEvent) *ReplayStrategy {
	recorded := make(map[string]domain.SignalEvent, len(events))
	for _, e := range events {
		recorded[dateKey(e)] = e
	}
	return &ReplayStrategy{recorded: recorded, name: name}
}

// Generate returns the recorded signal for each point date.
func (s *ReplayStrategy) Generate(_ context.Context, points []domain.ZScorePoint) ([]domain.SignalEvent, error) {
	out := make([]domain.SignalEvent, len(points))
	for i, p := range points {
		out[i] = domain.SignalEvent{Date: p.Date, ZScore: p.Value}
		if rec, ok := s.recorded[dateKey(out[i])]; ok {
			out[i].Signal = rec.Signal
			out[i].Reason = rec.Reason
		}
	}
	return out, nil
}

// ID returns the strategy identifier.
func (s *ReplayStrategy) ID() string {
	return "REPLAY_" + s.name
}

func dateKey(e domain.SignalEvent) string {
	return domain.NormalizeDate(e.Date).Format("2006-01-02")
}

// Ensure ReplayStrategy implements strategy.Strategy
var _ strategy.Strategy = (*ReplayStrategy)(nil)
