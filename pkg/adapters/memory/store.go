package memory

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/aretw0/stepwise/pkg/domain"
)

// ResultStore implements ports.ResultStore in memory.
// Safe for concurrent use.
type ResultStore struct {
	data map[string]domain.WizardResult
	mu   sync.RWMutex
}

// NewResultStore creates a new in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{
		data: make(map[string]domain.WizardResult),
	}
}

// Save keeps a copy of result.
func (s *ResultStore) Save(ctx context.Context, result *domain.WizardResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[result.ID] = copyResult(*result)
	return nil
}

// Load returns a copy so callers cannot mutate stored results.
func (s *ResultStore) Load(ctx context.Context, id string) (*domain.WizardResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data[id]
	if !ok {
		return nil, domain.ErrResultNotFound
	}
	out := copyResult(r)
	return &out, nil
}

// Delete removes the result.
func (s *ResultStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns stored result IDs in lexical order.
func (s *ResultStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Answers snapshots are immutable; only the recommendation map needs copying.
func copyResult(r domain.WizardResult) domain.WizardResult {
	r.Recommendations = maps.Clone(r.Recommendations)
	return r
}
