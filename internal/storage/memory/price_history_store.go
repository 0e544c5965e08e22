package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/storage"
)

// PriceHistoryStore is an in-memory implementation of storage.PriceHistoryStore.
type PriceHistoryStore struct {
	mu   sync.RWMutex
	data map[string]map[time.Time]float64 // asset -> date -> close
}

// NewPriceHistoryStore creates a new in-memory price history store.
func NewPriceHistoryStore() *PriceHistoryStore {
	return &PriceHistoryStore{
		data: make(map[string]map[time.Time]float64),
	}
}

// InsertBulk adds points for one asset. Fails entire batch on duplicate (asset, date).
func (s *PriceHistoryStore) InsertBulk(_ context.Context, asset string, points []domain.PricePoint) error {
	if asset == "" {
		return storage.ErrInvalidInput
	}
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[asset]

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[time.Time]struct{}, len(points))
	for _, p := range points {
		date := domain.NormalizeDate(p.Date)
		if _, exists := existing[date]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[date]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[date] = struct{}{}
	}

	if existing == nil {
		existing = make(map[time.Time]float64, len(points))
		s.data[asset] = existing
	}
	for _, p := range points {
		existing[domain.NormalizeDate(p.Date)] = p.Value
	}

	return nil
}

// GetByAsset retrieves the series for an asset, ordered by date ASC.
func (s *PriceHistoryStore) GetByAsset(_ context.Context, asset string) (*domain.PriceSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prices, exists := s.data[asset]
	if !exists || len(prices) == 0 {
		return nil, storage.ErrNotFound
	}
	return buildSeries(asset, prices), nil
}

// GetAll retrieves every stored series.
func (s *PriceHistoryStore) GetAll(_ context.Context) (domain.PriceHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make(domain.PriceHistory, len(s.data))
	for asset, prices := range s.data {
		history[asset] = buildSeries(asset, prices)
	}
	return history, nil
}

func buildSeries(asset string, prices map[time.Time]float64) *domain.PriceSeries {
	series := &domain.PriceSeries{Asset: asset, Points: make([]domain.PricePoint, 0, len(prices))}
	for date, v := range prices {
		series.Points = append(series.Points, domain.PricePoint{Date: date, Value: v})
	}
	sort.Slice(series.Points, func(i, j int) bool {
		return series.Points[i].Date.Before(series.Points[j].Date)
	})
	return series
}

var _ storage.PriceHistoryStore = (*PriceHistoryStore)(nil)
