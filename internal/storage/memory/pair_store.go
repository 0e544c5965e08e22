package memory

import (
	"context"
	"sort"
	"sync"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/storage"
)

// PairStore is an in-memory implementation of storage.PairStore.
type PairStore struct {
	mu   sync.RWMutex
	data map[domain.PairKey]domain.PairParameters
}

// NewPairStore creates a new in-memory pair store.
func NewPairStore() *PairStore {
	return &PairStore{
		data: make(map[domain.PairKey]domain.PairParameters),
	}
}

// InsertBulk adds pairs atomically. Fails entire batch on any duplicate.
func (s *PairStore) InsertBulk(_ context.Context, pairs []domain.PairParameters) error {
	if len(pairs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[domain.PairKey]struct{}, len(pairs))
	for _, p := range pairs {
		if p.AssetY == "" || p.AssetX == "" {
			return storage.ErrInvalidInput
		}
		key := p.Key()
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, p := range pairs {
		s.data[p.Key()] = p
	}
	return nil
}

// GetAll retrieves all pairs ordered by (asset_y, asset_x).
func (s *PairStore) GetAll(_ context.Context) ([]domain.PairParameters, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.PairParameters, 0, len(s.data))
	for _, p := range s.data {
		result = append(result, p)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].AssetY != result[j].AssetY {
			return result[i].AssetY < result[j].AssetY
		}
		return result[i].AssetX < result[j].AssetX
	})
	return result, nil
}

var _ storage.PairStore = (*PairStore)(nil)
