package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const tradeColumns = `
	trade_id, asset_y, asset_x, hedge_ratio, direction,
	entry_date, exit_date, holding_days, exit_reason,
	entry_value, exit_value, pnl, return_pct`

// InsertBulk adds trades for a run atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, runID string, trades []*domain.ClosedTrade) (err error) {
	defer observeQuery("trade.insert_bulk", time.Now(), &err)
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(trades) == 0 {
		return nil
	}
	for _, t := range trades {
		if t == nil || t.TradeID == "" {
			return storage.ErrInvalidInput
		}
	}

	query := `
		INSERT INTO closed_trades (run_id,` + tradeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	return execBulk(ctx, s.pool, len(trades), query,
		func(i int) []any {
			t := trades[i]
			return []any{
				runID, t.TradeID, t.AssetY, t.AssetX, t.HedgeRatio, string(t.Direction),
				t.EntryDate, t.ExitDate, t.HoldingDays, t.ExitReason,
				t.EntryValue, t.ExitValue, t.PnL, t.ReturnPct,
			}
		},
		func(err error) error {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert closed trade in bulk: %w", err)
		})
}

// GetByRun retrieves all trades of a run ordered by (entry_date, trade_id).
func (s *TradeStore) GetByRun(ctx context.Context, runID string) (_ []*domain.ClosedTrade, err error) {
	defer observeQuery("trade.get_by_run", time.Now(), &err)
	query := `
		SELECT` + tradeColumns + `
		FROM closed_trades
		WHERE run_id = $1
		ORDER BY entry_date ASC, trade_id ASC
	`
	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get closed trades by run: %w", err)
	}
	defer rows.Close()

	return scanClosedTrades(rows)
}

// GetByPair retrieves a run's trades for one pair ordered by entry_date.
func (s *TradeStore) GetByPair(ctx context.Context, runID, assetY, assetX string) (_ []*domain.ClosedTrade, err error) {
	defer observeQuery("trade.get_by_pair", time.Now(), &err)
	query := `
		SELECT` + tradeColumns + `
		FROM closed_trades
		WHERE run_id = $1 AND asset_y = $2 AND asset_x = $3
		ORDER BY entry_date ASC, trade_id ASC
	`
	rows, err := s.pool.Query(ctx, query, runID, assetY, assetX)
	if err != nil {
		return nil, fmt.Errorf("get closed trades by pair: %w", err)
	}
	defer rows.Close()

	return scanClosedTrades(rows)
}

// scanClosedTrades scans multiple rows.
func scanClosedTrades(rows pgx.Rows) ([]*domain.ClosedTrade, error) {
	var trades []*domain.ClosedTrade

	for rows.Next() {
		var t domain.ClosedTrade
		var direction string
		err := rows.Scan(
			&t.TradeID, &t.AssetY, &t.AssetX, &t.HedgeRatio, &direction,
			&t.EntryDate, &t.ExitDate, &t.HoldingDays, &t.ExitReason,
			&t.EntryValue, &t.ExitValue, &t.PnL, &t.ReturnPct,
		)
		if err != nil {
			return nil, fmt.Errorf("scan closed trade row: %w", err)
		}
		t.Direction = domain.Direction(direction)
		t.EntryDate = domain.NormalizeDate(t.EntryDate)
		t.ExitDate = domain.NormalizeDate(t.ExitDate)
		trades = append(trades, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate closed trade rows: %w", err)
	}

	return trades, nil
}
