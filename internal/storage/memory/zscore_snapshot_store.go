package memory

import (
	"context"
	"sync"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/storage"
)

// ZScoreSnapshotStore is an in-memory implementation of storage.ZScoreSnapshotStore.
type ZScoreSnapshotStore struct {
	mu   sync.RWMutex
	data map[domain.PairKey][]domain.ZScorePoint
}

// NewZScoreSnapshotStore creates a new in-memory snapshot store.
func NewZScoreSnapshotStore() *ZScoreSnapshotStore {
	return &ZScoreSnapshotStore{
		data: make(map[domain.PairKey][]domain.ZScorePoint),
	}
}

// Put replaces the snapshot for a pair.
func (s *ZScoreSnapshotStore) Put(_ context.Context, pair domain.PairKey, points []domain.ZScorePoint) error {
	if pair.AssetY == "" || pair.AssetX == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[pair] = append([]domain.ZScorePoint(nil), points...)
	return nil
}

// Get retrieves the snapshot for a pair. Returns ErrNotFound if not exists.
func (s *ZScoreSnapshotStore) Get(_ context.Context, pair domain.PairKey) ([]domain.ZScorePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points, exists := s.data[pair]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return append([]domain.ZScorePoint(nil), points...), nil
}

var _ storage.ZScoreSnapshotStore = (*ZScoreSnapshotStore)(nil)
