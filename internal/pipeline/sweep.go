package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/observability"
)

// Default sensitivity grid.
var (
	DefaultSweepEntryValues = []float64{1.5, 2.0, 2.5}
	DefaultSweepExitValues  = []float64{0.1, 0.3, 0.5}
)

// SweepCell is the outcome of one (entry, exit) combination.
type SweepCell struct {
	EntryZ         float64
	ExitZ          float64
	RunID          string
	QualifiedPairs int
	TradeCount     int
	SharpeRatio    float64
	MaxDrawdown    float64
	TotalReturn    float64
	Err            error
}

// Sweep runs the full pipeline once per cell of entries x exits, keeping every
// other option of base. Cells are returned in row-major order (entry outer).
// A failing cell is recorded in SweepCell.Err; cancellation aborts the sweep.
func Sweep(ctx context.Context, base Options, pairs []domain.PairParameters, entries, exits []float64) ([]SweepCell, error) {
	if len(entries) == 0 {
		entries = DefaultSweepEntryValues
	}
	if len(exits) == 0 {
		exits = DefaultSweepExitValues
	}

	logger := base.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	m := base.Metrics
	if m == nil {
		m = observability.DefaultMetrics
	}

	cells := make([]SweepCell, 0, len(entries)*len(exits))
	for _, entry := range entries {
		for _, exit := range exits {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			cell := SweepCell{EntryZ: entry, ExitZ: exit}
			opts := base
			opts.Thresholds.EntryZ = entry
			opts.Thresholds.ExitZ = exit
			opts.Mode = "sweep"

			result, err := runCell(ctx, opts, pairs)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				cell.Err = err
				m.RecordSweepCell("failure")
				logger.WithFields(logrus.Fields{"entry_z": entry, "exit_z": exit}).WithError(err).Warn("Sweep cell failed")
				cells = append(cells, cell)
				continue
			}

			cell.RunID = result.RunID
			cell.QualifiedPairs = len(result.Qualified)
			cell.TradeCount = result.Portfolio.TradeCount
			cell.SharpeRatio = result.Portfolio.SharpeRatio
			cell.MaxDrawdown = result.Portfolio.MaxDrawdown
			cell.TotalReturn = result.Portfolio.TotalReturn
			m.RecordSweepCell("success")

			logger.WithFields(logrus.Fields{
				"entry_z":   entry,
				"exit_z":    exit,
				"qualified": cell.QualifiedPairs,
				"sharpe":    sharpeField(cell.SharpeRatio),
			}).Info("Sweep cell complete")
			cells = append(cells, cell)
		}
	}
	return cells, nil
}

func runCell(ctx context.Context, opts Options, pairs []domain.PairParameters) (*RunResult, error) {
	p, err := New(opts)
	if err != nil {
		return nil, fmt.Errorf("entry %.2f exit %.2f: %w", opts.Thresholds.EntryZ, opts.Thresholds.ExitZ, err)
	}
	return p.Run(ctx, pairs)
}
