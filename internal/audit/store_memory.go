package audit

import (
	"context"
	"sync"

	"tutela/internal/domain"
)

// InMemoryStore keeps the trail in process memory. The single mutex also
// hands out the sequence number, so Seq order equals append order even with
// concurrent writers.
type InMemoryStore struct {
	mu     sync.RWMutex
	seq    uint64
	events []domain.AuditEvent
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event *domain.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	event.Seq = s.seq
	s.events = append(s.events, *event)
	return nil
}

func (s *InMemoryStore) Query(_ context.Context, filter Filter) ([]domain.AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.AuditEvent
	// events is already in ascending seq order; walk backwards for the
	// descending result.
	for i := len(s.events) - 1; i >= 0; i-- {
		e := s.events[i]
		if filter.SubjectID != "" && e.DataSubjectID != filter.SubjectID {
			continue
		}
		if filter.From != nil && e.Timestamp.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.Timestamp.After(*filter.To) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
