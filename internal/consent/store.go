package consent

import (
	"context"

	"tutela/internal/domain"
)

// Store persists consent records. Save is an upsert keyed by consent id;
// FindByID returns sentinel.ErrNotFound for missing ids. DeleteBySubject is
// the erasure cascade and reports how many records it removed.
type Store interface {
	Save(ctx context.Context, consent *domain.Consent) error
	FindByID(ctx context.Context, id string) (*domain.Consent, error)
	ListBySubject(ctx context.Context, subjectID string) ([]domain.Consent, error)
	DeleteBySubject(ctx context.Context, subjectID string) (int, error)
}
