package memory

import (
	"context"
	"sort"
	"sync"

	"pairs-lab/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	data map[string]*storage.RunRecord
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		data: make(map[string]*storage.RunRecord),
	}
}

// Insert adds a run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(_ context.Context, r *storage.RunRecord) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}
	recordCopy := *r
	s.data[r.RunID] = &recordCopy
	return nil
}

// GetByID retrieves a run. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(_ context.Context, runID string) (*storage.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	recordCopy := *r
	return &recordCopy, nil
}

// GetByParams retrieves all runs with the given parameter hash, newest first.
func (s *RunStore) GetByParams(_ context.Context, paramsID string) ([]*storage.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*storage.RunRecord
	for _, r := range s.data {
		if r.ParamsID == paramsID {
			recordCopy := *r
			result = append(result, &recordCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartedAt.Equal(result[j].StartedAt) {
			return result[i].StartedAt.After(result[j].StartedAt)
		}
		return result[i].RunID < result[j].RunID
	})
	return result, nil
}

var _ storage.RunStore = (*RunStore)(nil)
