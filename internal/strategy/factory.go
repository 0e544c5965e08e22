package strategy

import (
	"errors"
	"fmt"

	"pairs-lab/internal/domain"
)

// Factory errors
var (
	ErrInvalidThresholds = errors.New("invalid thresholds")
)

// Validate checks threshold values that would make the state machine meaningless.
// SafeZ <= EntryZ is allowed: it simply never opens a position.
func Validate(th domain.Thresholds) error {
	switch {
	case th.EntryZ < 0:
		return fmt.Errorf("%w: entry_z must be >= 0, got %v", ErrInvalidThresholds, th.EntryZ)
	case th.ExitZ < 0:
		return fmt.Errorf("%w: exit_z must be >= 0, got %v", ErrInvalidThresholds, th.ExitZ)
	case th.StopZ < 0:
		return fmt.Errorf("%w: stop_z must be >= 0, got %v", ErrInvalidThresholds, th.StopZ)
	case th.SafeZ < 0:
		return fmt.Errorf("%w: safe_z must be >= 0, got %v", ErrInvalidThresholds, th.SafeZ)
	case th.MaxHoldingDays <= 0:
		return fmt.Errorf("%w: max_holding_days must be > 0, got %d", ErrInvalidThresholds, th.MaxHoldingDays)
	case th.RollingWindow < 2:
		return fmt.Errorf("%w: rolling_window must be >= 2, got %d", ErrInvalidThresholds, th.RollingWindow)
	}
	return nil
}

// FromThresholds creates a Strategy from validated thresholds.
func FromThresholds(th domain.Thresholds) (Strategy, error) {
	if err := Validate(th); err != nil {
		return nil, err
	}
	return NewZScoreStrategy(th), nil
}
