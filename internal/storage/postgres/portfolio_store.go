package postgres

import (
	"context"
	"fmt"
	"time"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/storage"
)

// PortfolioStore implements storage.PortfolioStore using PostgreSQL.
// The scalar summary and the daily curve live in separate tables and are
// written in one transaction.
type PortfolioStore struct {
	pool *Pool
}

// NewPortfolioStore creates a new PortfolioStore.
func NewPortfolioStore(pool *Pool) *PortfolioStore {
	return &PortfolioStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PortfolioStore = (*PortfolioStore)(nil)

// Insert stores the portfolio of a run. Returns ErrDuplicateKey if run_id exists.
func (s *PortfolioStore) Insert(ctx context.Context, runID string, p *domain.PortfolioSummary) (err error) {
	defer observeQuery("portfolio.insert", time.Now(), &err)
	if runID == "" || p == nil {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO portfolio_summaries (run_id, sharpe_ratio, max_drawdown, total_return, pair_count, trade_count)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, runID, p.SharpeRatio, p.MaxDrawdown, p.TotalReturn, p.PairCount, p.TradeCount)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert portfolio summary: %w", err)
	}

	for _, d := range p.Daily {
		_, err := tx.Exec(ctx, `
			INSERT INTO portfolio_daily_returns (run_id, date, daily_return, cumulative_return, active_trades)
			VALUES ($1, $2, $3, $4, $5)
		`, runID, d.Date, d.Return, d.CumulativeReturn, d.ActiveTrades)
		if err != nil {
			return fmt.Errorf("insert portfolio daily return: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRun retrieves a run's portfolio. Returns ErrNotFound if not exists.
func (s *PortfolioStore) GetByRun(ctx context.Context, runID string) (_ *domain.PortfolioSummary, err error) {
	defer observeQuery("portfolio.get_by_run", time.Now(), &err)
	var p domain.PortfolioSummary
	err = s.pool.QueryRow(ctx, `
		SELECT sharpe_ratio, max_drawdown, total_return, pair_count, trade_count
		FROM portfolio_summaries
		WHERE run_id = $1
	`, runID).Scan(&p.SharpeRatio, &p.MaxDrawdown, &p.TotalReturn, &p.PairCount, &p.TradeCount)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get portfolio summary: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT date, daily_return, cumulative_return, active_trades
		FROM portfolio_daily_returns
		WHERE run_id = $1
		ORDER BY date ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("get portfolio daily returns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d domain.PortfolioDailyReturn
		if err := rows.Scan(&d.Date, &d.Return, &d.CumulativeReturn, &d.ActiveTrades); err != nil {
			return nil, fmt.Errorf("scan portfolio daily row: %w", err)
		}
		d.Date = domain.NormalizeDate(d.Date)
		p.Daily = append(p.Daily, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate portfolio daily rows: %w", err)
	}
	return &p, nil
}
