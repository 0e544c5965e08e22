package memory

import (
	"context"
	"sync"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/storage"
)

// PortfolioStore is an in-memory implementation of storage.PortfolioStore.
type PortfolioStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PortfolioSummary // keyed by run_id
}

// NewPortfolioStore creates a new in-memory portfolio store.
func NewPortfolioStore() *PortfolioStore {
	return &PortfolioStore{
		data: make(map[string]*domain.PortfolioSummary),
	}
}

// Insert stores the portfolio of a run. Returns ErrDuplicateKey if run_id exists.
func (s *PortfolioStore) Insert(_ context.Context, runID string, p *domain.PortfolioSummary) error {
	if runID == "" || p == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[runID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[runID] = copyPortfolio(p)
	return nil
}

// GetByRun retrieves a run's portfolio. Returns ErrNotFound if not exists.
func (s *PortfolioStore) GetByRun(_ context.Context, runID string) (*domain.PortfolioSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyPortfolio(p), nil
}

func copyPortfolio(p *domain.PortfolioSummary) *domain.PortfolioSummary {
	c := *p
	c.Daily = append([]domain.PortfolioDailyReturn(nil), p.Daily...)
	return &c
}

var _ storage.PortfolioStore = (*PortfolioStore)(nil)
