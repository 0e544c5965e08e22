package storage

import (
	"context"
	"time"
)

// RunRecord describes one pipeline execution.
type RunRecord struct {
	RunID          string
	StrategyID     string
	ParamsID       string // hash of the thresholds, shared by runs with equal parameters
	Year           int    // 0 for full-history runs
	StartedAt      time.Time
	PairCount      int
	TradeCount     int
	QualifiedCount int
}

// RunStore provides persistence for run metadata so results can be
// retrieved after the process exits.
type RunStore interface {
	// Insert adds a run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *RunRecord) error

	// GetByID retrieves a run. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*RunRecord, error)

	// GetByParams retrieves all runs with the given parameter hash, newest first.
	GetByParams(ctx context.Context, paramsID string) ([]*RunRecord, error)
}
