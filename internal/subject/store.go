package subject

import (
	"context"

	"tutela/internal/domain"
)

// Store persists data-subject records. Implementations return
// sentinel.ErrNotFound for missing ids.
type Store interface {
	Save(ctx context.Context, subject *domain.DataSubject) error
	FindByID(ctx context.Context, id string) (*domain.DataSubject, error)
	Delete(ctx context.Context, id string) error
}
