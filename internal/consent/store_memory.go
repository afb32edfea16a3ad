package consent

import (
	"context"
	"sort"
	"sync"

	"tutela/internal/domain"
	"tutela/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	consents map[string]domain.Consent
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{consents: make(map[string]domain.Consent)}
}

func (s *InMemoryStore) Save(_ context.Context, consent *domain.Consent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consents[consent.ID] = *consent
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*domain.Consent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	consent, ok := s.consents[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &consent, nil
}

func (s *InMemoryStore) ListBySubject(_ context.Context, subjectID string) ([]domain.Consent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Consent
	for _, c := range s.consents {
		if c.DataSubjectID == subjectID {
			out = append(out, c)
		}
	}
	// Map iteration order is random; callers expect stable listings.
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) DeleteBySubject(_ context.Context, subjectID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, c := range s.consents {
		if c.DataSubjectID == subjectID {
			delete(s.consents, id)
			removed++
		}
	}
	return removed, nil
}
