package memory

import (
	"context"
	"sort"
	"sync"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/storage"
)

// PairSummaryStore is an in-memory implementation of storage.PairSummaryStore.
type PairSummaryStore struct {
	mu   sync.RWMutex
	data map[string]map[domain.PairKey]*domain.PairSummary // run_id -> pair -> summary
}

// NewPairSummaryStore creates a new in-memory pair summary store.
func NewPairSummaryStore() *PairSummaryStore {
	return &PairSummaryStore{
		data: make(map[string]map[domain.PairKey]*domain.PairSummary),
	}
}

// InsertBulk adds summaries for a run. Fails entire batch on any duplicate.
func (s *PairSummaryStore) InsertBulk(_ context.Context, runID string, summaries []*domain.PairSummary) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(summaries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[runID]
	batchKeys := make(map[domain.PairKey]struct{}, len(summaries))
	for _, sum := range summaries {
		if sum == nil || sum.AssetY == "" || sum.AssetX == "" {
			return storage.ErrInvalidInput
		}
		key := sum.Key()
		if _, exists := existing[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	if existing == nil {
		existing = make(map[domain.PairKey]*domain.PairSummary, len(summaries))
		s.data[runID] = existing
	}
	for _, sum := range summaries {
		existing[sum.Key()] = copySummary(sum)
	}
	return nil
}

// GetByRun retrieves a run's summaries ordered by (asset_y, asset_x).
func (s *PairSummaryStore) GetByRun(_ context.Context, runID string) ([]*domain.PairSummary, error) {
	return s.filter(runID, false), nil
}

// GetQualified retrieves only summaries flagged as qualified.
func (s *PairSummaryStore) GetQualified(_ context.Context, runID string) ([]*domain.PairSummary, error) {
	return s.filter(runID, true), nil
}

func (s *PairSummaryStore) filter(runID string, qualifiedOnly bool) []*domain.PairSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PairSummary
	for _, sum := range s.data[runID] {
		if qualifiedOnly && !sum.Qualified {
			continue
		}
		result = append(result, copySummary(sum))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].AssetY != result[j].AssetY {
			return result[i].AssetY < result[j].AssetY
		}
		return result[i].AssetX < result[j].AssetX
	})
	return result
}

// copySummary deep-copies the yearly map so callers cannot mutate stored state.
func copySummary(sum *domain.PairSummary) *domain.PairSummary {
	c := *sum
	if sum.YearlyReturns != nil {
		c.YearlyReturns = make(map[int]float64, len(sum.YearlyReturns))
		for y, r := range sum.YearlyReturns {
			c.YearlyReturns[y] = r
		}
	}
	return &c
}

var _ storage.PairSummaryStore = (*PairSummaryStore)(nil)
