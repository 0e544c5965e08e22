package clickhouse

import (
	"context"
	"fmt"
	"time"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/storage"
)

// PriceHistoryStore implements storage.PriceHistoryStore using ClickHouse.
type PriceHistoryStore struct {
	conn *Conn
}

// NewPriceHistoryStore creates a new PriceHistoryStore.
func NewPriceHistoryStore(conn *Conn) *PriceHistoryStore {
	return &PriceHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceHistoryStore = (*PriceHistoryStore)(nil)

// InsertBulk adds points for one asset. Fails entire batch on duplicate (asset, date).
// ReplacingMergeTree does not enforce uniqueness, so duplicates are checked first.
func (s *PriceHistoryStore) InsertBulk(ctx context.Context, asset string, points []domain.PricePoint) (err error) {
	defer observeQuery("price_history.insert_bulk", time.Now(), &err)
	if asset == "" {
		return storage.ErrInvalidInput
	}
	if len(points) == 0 {
		return nil
	}

	// Check for intra-batch duplicates and find the date span
	seen := make(map[time.Time]struct{}, len(points))
	minDate := domain.NormalizeDate(points[0].Date)
	maxDate := minDate
	for _, p := range points {
		d := domain.NormalizeDate(p.Date)
		if _, exists := seen[d]; exists {
			return storage.ErrDuplicateKey
		}
		seen[d] = struct{}{}
		if d.Before(minDate) {
			minDate = d
		}
		if d.After(maxDate) {
			maxDate = d
		}
	}

	// Check for duplicates against existing rows in one range query
	existing, err := s.datesInRange(ctx, asset, minDate, maxDate)
	if err != nil {
		return fmt.Errorf("check existing dates: %w", err)
	}
	for _, d := range existing {
		if _, dup := seen[d]; dup {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO price_history (asset, date, close)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if err := batch.Append(asset, domain.NormalizeDate(p.Date), p.Value); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByAsset retrieves the series for an asset, ordered by date ASC.
func (s *PriceHistoryStore) GetByAsset(ctx context.Context, asset string) (_ *domain.PriceSeries, err error) {
	defer observeQuery("price_history.get_by_asset", time.Now(), &err)
	rows, err := s.conn.Query(ctx, `
		SELECT asset, date, close
		FROM price_history FINAL
		WHERE asset = ?
		ORDER BY date ASC
	`, asset)
	if err != nil {
		return nil, fmt.Errorf("query by asset: %w", err)
	}
	defer rows.Close()

	history, err := scanPriceHistory(rows)
	if err != nil {
		return nil, err
	}
	series, ok := history[asset]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return series, nil
}

// GetAll retrieves every stored series.
func (s *PriceHistoryStore) GetAll(ctx context.Context) (_ domain.PriceHistory, err error) {
	defer observeQuery("price_history.get_all", time.Now(), &err)
	rows, err := s.conn.Query(ctx, `
		SELECT asset, date, close
		FROM price_history FINAL
		ORDER BY asset ASC, date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query all prices: %w", err)
	}
	defer rows.Close()

	return scanPriceHistory(rows)
}

func (s *PriceHistoryStore) datesInRange(ctx context.Context, asset string, from, to time.Time) ([]time.Time, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT date FROM price_history
		WHERE asset = ? AND date >= ? AND date <= ?
	`, asset, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, domain.NormalizeDate(d))
	}
	return dates, rows.Err()
}

// scanPriceHistory groups rows ordered by (asset, date) into series.
func scanPriceHistory(rows chRows) (domain.PriceHistory, error) {
	history := make(domain.PriceHistory)

	for rows.Next() {
		var (
			asset string
			date  time.Time
			price float64
		)
		if err := rows.Scan(&asset, &date, &price); err != nil {
			return nil, fmt.Errorf("scan price history row: %w", err)
		}

		series, ok := history[asset]
		if !ok {
			series = &domain.PriceSeries{Asset: asset}
			history[asset] = series
		}
		series.Points = append(series.Points, domain.PricePoint{Date: domain.NormalizeDate(date), Value: price})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price history rows: %w", err)
	}
	return history, nil
}
