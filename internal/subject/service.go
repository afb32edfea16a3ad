package subject

import (
	"context"
	"errors"
	"log/slog"

	"tutela/internal/audit"
	"tutela/internal/domain"
	"tutela/internal/identifier"
	dErrors "tutela/pkg/domain-errors"
	"tutela/pkg/platform/sentinel"
	"tutela/pkg/requestcontext"
)

// AuditAppender is the slice of the audit trail this registry needs.
type AuditAppender interface {
	Append(ctx context.Context, event domain.AuditEvent) error
}

var _ AuditAppender = (*audit.Trail)(nil)

// Registry owns data-subject records and their subject-level invariants.
// Deletion is unconditional here; the rights coordinator is the only caller
// and enforces the cross-entity erasure precondition first.
type Registry struct {
	store  Store
	ids    identifier.Generator
	trail  AuditAppender
	logger *slog.Logger
}

// Option configures the Registry.
type Option func(*Registry)

// WithLogger sets a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// NewRegistry constructs a Registry.
func NewRegistry(store Store, ids identifier.Generator, trail AuditAppender, opts ...Option) *Registry {
	r := &Registry{store: store, ids: ids, trail: trail, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register stores a new data subject and returns its assigned id.
// Required fields: name, document, at least one data category.
func (r *Registry) Register(ctx context.Context, subject domain.DataSubject) (string, error) {
	if subject.Name == "" {
		return "", dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if subject.Document == "" {
		return "", dErrors.New(dErrors.CodeValidation, "document is required")
	}
	if len(subject.DataCategories) == 0 {
		return "", dErrors.New(dErrors.CodeValidation, "at least one data category is required")
	}

	now := requestcontext.Now(ctx)
	subject.ID = r.ids.NewID()
	subject.CreatedAt = now
	subject.UpdatedAt = now

	if err := r.store.Save(ctx, &subject); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to store data subject")
	}

	if err := r.trail.Append(ctx, domain.AuditEvent{
		DataSubjectID:  subject.ID,
		Action:         domain.ActionRegisterDataSubject,
		Purpose:        "data_registration",
		LegalBasis:     domain.BasisConsent,
		DataCategories: subject.DataCategories,
		IPAddress:      requestcontext.ClientIP(ctx),
		UserAgent:      requestcontext.UserAgent(ctx),
		Result:         domain.ResultSuccess,
		Details:        map[string]any{"document": subject.Document},
	}); err != nil {
		// Subject is stored; surface the audit failure rather than hide it.
		return subject.ID, err
	}

	r.logger.InfoContext(ctx, "data subject registered", "subject_id", subject.ID)
	return subject.ID, nil
}

// Get returns the subject or a not-found error.
func (r *Registry) Get(ctx context.Context, id string) (*domain.DataSubject, error) {
	subject, err := r.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "data subject not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load data subject")
	}
	return subject, nil
}

// Delete removes the subject unconditionally and emits the deletion audit
// event. Call only through the rights coordinator.
func (r *Registry) Delete(ctx context.Context, id string) error {
	subject, err := r.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "data subject not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load data subject")
	}

	if err := r.store.Delete(ctx, id); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete data subject")
	}

	if err := r.trail.Append(ctx, domain.AuditEvent{
		DataSubjectID:  id,
		Action:         domain.ActionDeleteDataSubject,
		Purpose:        "data_deletion",
		LegalBasis:     domain.BasisConsent,
		DataCategories: subject.DataCategories,
		IPAddress:      requestcontext.ClientIP(ctx),
		UserAgent:      requestcontext.UserAgent(ctx),
		Result:         domain.ResultSuccess,
		Details:        map[string]any{"data_subject_id": id},
	}); err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "data subject deleted", "subject_id", id)
	return nil
}
