package postgres

import (
	"context"
	"fmt"
	"time"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/storage"
)

// PairStore implements storage.PairStore using PostgreSQL.
type PairStore struct {
	pool *Pool
}

// NewPairStore creates a new PairStore.
func NewPairStore(pool *Pool) *PairStore {
	return &PairStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PairStore = (*PairStore)(nil)

// InsertBulk adds pairs atomically. Returns ErrDuplicateKey if (asset_y, asset_x) exists.
func (s *PairStore) InsertBulk(ctx context.Context, pairs []domain.PairParameters) (err error) {
	defer observeQuery("pair.insert_bulk", time.Now(), &err)
	if len(pairs) == 0 {
		return nil
	}
	for _, p := range pairs {
		if p.AssetY == "" || p.AssetX == "" {
			return storage.ErrInvalidInput
		}
	}

	query := `INSERT INTO pairs (asset_y, asset_x, hedge_ratio) VALUES ($1, $2, $3)`
	return execBulk(ctx, s.pool, len(pairs), query,
		func(i int) []any {
			return []any{pairs[i].AssetY, pairs[i].AssetX, pairs[i].HedgeRatio}
		},
		func(err error) error {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert pair: %w", err)
		})
}

// GetAll retrieves all pairs ordered by (asset_y, asset_x).
func (s *PairStore) GetAll(ctx context.Context) (_ []domain.PairParameters, err error) {
	defer observeQuery("pair.get_all", time.Now(), &err)
	rows, err := s.pool.Query(ctx, `
		SELECT asset_y, asset_x, hedge_ratio
		FROM pairs
		ORDER BY asset_y ASC, asset_x ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("get pairs: %w", err)
	}
	defer rows.Close()

	var pairs []domain.PairParameters
	for rows.Next() {
		var p domain.PairParameters
		if err := rows.Scan(&p.AssetY, &p.AssetX, &p.HedgeRatio); err != nil {
			return nil, fmt.Errorf("scan pair row: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pair rows: %w", err)
	}
	return pairs, nil
}
