package strategy

import (
	"context"

	"pairs-lab/internal/domain"
)

// Strategy turns a z-score series into discrete signal events.
type Strategy interface {
	// Generate walks the z-score series in date order and returns one
	// event per input point (SignalNone where nothing happens).
	Generate(ctx context.Context, points []domain.ZScorePoint) ([]domain.SignalEvent, error)

	// ID returns strategy identifier (includes parameters).
	ID() string
}
