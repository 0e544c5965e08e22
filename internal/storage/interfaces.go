package storage

import (
	"context"

	"pairs-lab/internal/domain"
)

// PriceHistoryStore provides access to daily close prices.
type PriceHistoryStore interface {
	// InsertBulk adds points for one asset. Fails entire batch on duplicate (asset, date).
	InsertBulk(ctx context.Context, asset string, points []domain.PricePoint) error

	// GetByAsset retrieves the series for an asset, ordered by date ASC.
	// Returns ErrNotFound if the asset has no prices.
	GetByAsset(ctx context.Context, asset string) (*domain.PriceSeries, error)

	// GetAll retrieves every stored series.
	GetAll(ctx context.Context) (domain.PriceHistory, error)
}

// PairStore provides access to pair parameters.
type PairStore interface {
	// InsertBulk adds pairs atomically. Returns ErrDuplicateKey if (asset_y, asset_x) exists.
	InsertBulk(ctx context.Context, pairs []domain.PairParameters) error

	// GetAll retrieves all pairs ordered by (asset_y, asset_x).
	GetAll(ctx context.Context) ([]domain.PairParameters, error)
}

// TradeStore provides access to closed trades, partitioned by run.
type TradeStore interface {
	// InsertBulk adds trades for a run atomically. Fails entire batch on duplicate (run_id, trade_id).
	InsertBulk(ctx context.Context, runID string, trades []*domain.ClosedTrade) error

	// GetByRun retrieves all trades of a run ordered by (entry_date, trade_id).
	GetByRun(ctx context.Context, runID string) ([]*domain.ClosedTrade, error)

	// GetByPair retrieves a run's trades for one pair ordered by entry_date.
	GetByPair(ctx context.Context, runID, assetY, assetX string) ([]*domain.ClosedTrade, error)
}

// PairSummaryStore provides access to per-pair statistics.
type PairSummaryStore interface {
	// InsertBulk adds summaries for a run. Fails entire batch on duplicate (run_id, asset_y, asset_x).
	InsertBulk(ctx context.Context, runID string, summaries []*domain.PairSummary) error

	// GetByRun retrieves a run's summaries ordered by (asset_y, asset_x).
	GetByRun(ctx context.Context, runID string) ([]*domain.PairSummary, error)

	// GetQualified retrieves only summaries flagged as qualified.
	GetQualified(ctx context.Context, runID string) ([]*domain.PairSummary, error)
}

// PortfolioStore provides access to portfolio results.
type PortfolioStore interface {
	// Insert stores the portfolio of a run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, runID string, p *domain.PortfolioSummary) error

	// GetByRun retrieves a run's portfolio. Returns ErrNotFound if not exists.
	GetByRun(ctx context.Context, runID string) (*domain.PortfolioSummary, error)
}

// ZScoreSnapshotStore keeps the most recent z-score rows per pair.
// Unlike the other stores it overwrites: only the latest snapshot is kept.
type ZScoreSnapshotStore interface {
	// Put replaces the snapshot for a pair.
	Put(ctx context.Context, pair domain.PairKey, points []domain.ZScorePoint) error

	// Get retrieves the snapshot for a pair. Returns ErrNotFound if not exists.
	Get(ctx context.Context, pair domain.PairKey) ([]domain.ZScorePoint, error)
}
