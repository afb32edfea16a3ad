package processing

import (
	"context"

	"tutela/internal/domain"
)

// Store persists processing activities. Save is an upsert keyed by activity
// id; FindByID returns sentinel.ErrNotFound for missing ids. ListReferencing
// returns every activity whose subject list contains subjectID.
type Store interface {
	Save(ctx context.Context, activity *domain.ProcessingActivity) error
	FindByID(ctx context.Context, id string) (*domain.ProcessingActivity, error)
	List(ctx context.Context) ([]domain.ProcessingActivity, error)
	ListReferencing(ctx context.Context, subjectID string) ([]domain.ProcessingActivity, error)
	Delete(ctx context.Context, id string) error
}
