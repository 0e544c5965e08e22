package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/storage"
)

// PairSummaryStore implements storage.PairSummaryStore using PostgreSQL.
// Yearly returns are stored as JSONB keyed by year.
type PairSummaryStore struct {
	pool *Pool
}

// NewPairSummaryStore creates a new PairSummaryStore.
func NewPairSummaryStore(pool *Pool) *PairSummaryStore {
	return &PairSummaryStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PairSummaryStore = (*PairSummaryStore)(nil)

const summaryColumns = `
	asset_y, asset_x, hedge_ratio, total_trades, avg_holding_days,
	total_return_pct, avg_return_pct, median_return_pct, win_rate_pct,
	yearly_returns, qualified`

// InsertBulk adds summaries for a run. Fails entire batch on any duplicate.
func (s *PairSummaryStore) InsertBulk(ctx context.Context, runID string, summaries []*domain.PairSummary) (err error) {
	defer observeQuery("pair_summary.insert_bulk", time.Now(), &err)
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(summaries) == 0 {
		return nil
	}
	for _, sum := range summaries {
		if sum == nil || sum.AssetY == "" || sum.AssetX == "" {
			return storage.ErrInvalidInput
		}
	}

	query := `
		INSERT INTO pair_summaries (run_id,` + summaryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	return execBulk(ctx, s.pool, len(summaries), query,
		func(i int) []any {
			sum := summaries[i]
			yearly := sum.YearlyReturns
			if yearly == nil {
				yearly = map[int]float64{}
			}
			return []any{
				runID, sum.AssetY, sum.AssetX, sum.HedgeRatio, sum.TotalTrades, sum.AvgHoldingDays,
				sum.TotalReturnPct, sum.AvgReturnPct, sum.MedianReturnPct, sum.WinRatePct,
				yearly, sum.Qualified,
			}
		},
		func(err error) error {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert pair summary: %w", err)
		})
}

// GetByRun retrieves a run's summaries ordered by (asset_y, asset_x).
func (s *PairSummaryStore) GetByRun(ctx context.Context, runID string) (_ []*domain.PairSummary, err error) {
	defer observeQuery("pair_summary.get_by_run", time.Now(), &err)
	return s.query(ctx, `
		SELECT`+summaryColumns+`
		FROM pair_summaries
		WHERE run_id = $1
		ORDER BY asset_y ASC, asset_x ASC
	`, runID)
}

// GetQualified retrieves only summaries flagged as qualified.
func (s *PairSummaryStore) GetQualified(ctx context.Context, runID string) (_ []*domain.PairSummary, err error) {
	defer observeQuery("pair_summary.get_qualified", time.Now(), &err)
	return s.query(ctx, `
		SELECT`+summaryColumns+`
		FROM pair_summaries
		WHERE run_id = $1 AND qualified
		ORDER BY asset_y ASC, asset_x ASC
	`, runID)
}

func (s *PairSummaryStore) query(ctx context.Context, query, runID string) ([]*domain.PairSummary, error) {
	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get pair summaries: %w", err)
	}
	defer rows.Close()

	return scanPairSummaries(rows)
}

func scanPairSummaries(rows pgx.Rows) ([]*domain.PairSummary, error) {
	var summaries []*domain.PairSummary

	for rows.Next() {
		var sum domain.PairSummary
		err := rows.Scan(
			&sum.AssetY, &sum.AssetX, &sum.HedgeRatio, &sum.TotalTrades, &sum.AvgHoldingDays,
			&sum.TotalReturnPct, &sum.AvgReturnPct, &sum.MedianReturnPct, &sum.WinRatePct,
			&sum.YearlyReturns, &sum.Qualified,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pair summary row: %w", err)
		}
		summaries = append(summaries, &sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pair summary rows: %w", err)
	}
	return summaries, nil
}
