package processing

import (
	"context"
	"sort"
	"sync"

	"tutela/internal/domain"
	"tutela/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu         sync.RWMutex
	activities map[string]domain.ProcessingActivity
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{activities: make(map[string]domain.ProcessingActivity)}
}

func (s *InMemoryStore) Save(_ context.Context, activity *domain.ProcessingActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities[activity.ID] = *activity
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*domain.ProcessingActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	activity, ok := s.activities[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &activity, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]domain.ProcessingActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ProcessingActivity, 0, len(s.activities))
	for _, a := range s.activities {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) ListReferencing(_ context.Context, subjectID string) ([]domain.ProcessingActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ProcessingActivity
	for _, a := range s.activities {
		if a.References(subjectID) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.activities, id)
	return nil
}
