package subject

import (
	"context"
	"sync"

	"tutela/internal/domain"
	"tutela/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	subjects map[string]domain.DataSubject
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{subjects: make(map[string]domain.DataSubject)}
}

func (s *InMemoryStore) Save(_ context.Context, subject *domain.DataSubject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects[subject.ID] = *subject
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*domain.DataSubject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subject, ok := s.subjects[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &subject, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subjects[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.subjects, id)
	return nil
}
