package memory

import (
	"context"
	"sort"
	"sync"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string]map[string]*domain.ClosedTrade // run_id -> trade_id -> trade
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]map[string]*domain.ClosedTrade),
	}
}

// InsertBulk adds trades for a run atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(_ context.Context, runID string, trades []*domain.ClosedTrade) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[runID]

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if t == nil || t.TradeID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := existing[t.TradeID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[t.TradeID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[t.TradeID] = struct{}{}
	}

	if existing == nil {
		existing = make(map[string]*domain.ClosedTrade, len(trades))
		s.data[runID] = existing
	}
	for _, t := range trades {
		tradeCopy := *t
		existing[t.TradeID] = &tradeCopy
	}
	return nil
}

// GetByRun retrieves all trades of a run ordered by (entry_date, trade_id).
func (s *TradeStore) GetByRun(_ context.Context, runID string) ([]*domain.ClosedTrade, error) {
	return s.filter(runID, func(*domain.ClosedTrade) bool { return true }), nil
}

// GetByPair retrieves a run's trades for one pair ordered by entry_date.
func (s *TradeStore) GetByPair(_ context.Context, runID, assetY, assetX string) ([]*domain.ClosedTrade, error) {
	return s.filter(runID, func(t *domain.ClosedTrade) bool {
		return t.AssetY == assetY && t.AssetX == assetX
	}), nil
}

func (s *TradeStore) filter(runID string, keep func(*domain.ClosedTrade) bool) []*domain.ClosedTrade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ClosedTrade
	for _, t := range s.data[runID] {
		if keep(t) {
			tradeCopy := *t
			result = append(result, &tradeCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].EntryDate.Equal(result[j].EntryDate) {
			return result[i].EntryDate.Before(result[j].EntryDate)
		}
		return result[i].TradeID < result[j].TradeID
	})
	return result
}

var _ storage.TradeStore = (*TradeStore)(nil)
