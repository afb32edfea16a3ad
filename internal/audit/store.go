package audit

import (
	"context"
	"time"

	"tutela/internal/domain"
)

// Filter narrows a trail query. Zero fields match everything.
type Filter struct {
	SubjectID string
	From      *time.Time
	To        *time.Time
}

// Store persists audit events. Append-only: implementations must never
// overwrite or remove prior entries, and must assign a strictly increasing
// Seq even under concurrent writers.
type Store interface {
	Append(ctx context.Context, event *domain.AuditEvent) error
	Query(ctx context.Context, filter Filter) ([]domain.AuditEvent, error)
}
