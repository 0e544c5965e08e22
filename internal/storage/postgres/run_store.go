package postgres

import (
	"context"
	"fmt"
	"time"

	"pairs-lab/internal/storage"
)

// RunStore is a PostgreSQL implementation of storage.RunStore.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new PostgreSQL run store.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// Insert adds a run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *storage.RunRecord) (err error) {
	defer observeQuery("run.insert", time.Now(), &err)
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO runs (run_id, strategy_id, params_id, year, started_at, pair_count, trade_count, qualified_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.RunID, r.StrategyID, r.ParamsID, r.Year, r.StartedAt, r.PairCount, r.TradeCount, r.QualifiedCount)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID retrieves a run. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (_ *storage.RunRecord, err error) {
	defer observeQuery("run.get_by_id", time.Now(), &err)
	var r storage.RunRecord
	err = s.pool.QueryRow(ctx, `
		SELECT run_id, strategy_id, params_id, year, started_at, pair_count, trade_count, qualified_count
		FROM runs
		WHERE run_id = $1
	`, runID).Scan(&r.RunID, &r.StrategyID, &r.ParamsID, &r.Year, &r.StartedAt, &r.PairCount, &r.TradeCount, &r.QualifiedCount)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &r, nil
}

// GetByParams retrieves all runs with the given parameter hash, newest first.
func (s *RunStore) GetByParams(ctx context.Context, paramsID string) (_ []*storage.RunRecord, err error) {
	defer observeQuery("run.get_by_params", time.Now(), &err)
	rows, err := s.pool.Query(ctx, `
		SELECT run_id, strategy_id, params_id, year, started_at, pair_count, trade_count, qualified_count
		FROM runs
		WHERE params_id = $1
		ORDER BY started_at DESC, run_id ASC
	`, paramsID)
	if err != nil {
		return nil, fmt.Errorf("get runs by params: %w", err)
	}
	defer rows.Close()

	var runs []*storage.RunRecord
	for rows.Next() {
		var r storage.RunRecord
		if err := rows.Scan(&r.RunID, &r.StrategyID, &r.ParamsID, &r.Year, &r.StartedAt, &r.PairCount, &r.TradeCount, &r.QualifiedCount); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}
