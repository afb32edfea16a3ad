package processing

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

// AuditAppender is the slice of the audit trail the registry needs.
type AuditAppender interface {
	Append(ctx context.Context, event domain.AuditEvent) error
}

var _ AuditAppender = (*audit.Trail)(nil)

// Registry records declared processing activities. Registration is a
// declaration, not an approval: no consent or basis cross-checks happen
// here, so the regulation engine always sees the activity as declared.
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
	r := &Registry{
		store:  store,
		ids:    ids,
		trail:  trail,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register stores a new processing activity and returns its id. The legal
// basis and referenced subjects are recorded as declared; lawfulness is
// judged later, at evaluation time.
func (r *Registry) Register(ctx context.Context, activity domain.ProcessingActivity) (string, error) {
	if activity.Purpose == "" {
		return "", dErrors.New(dErrors.CodeValidation, "purpose is required")
	}
	if activity.LegalBasis == "" {
		return "", dErrors.New(dErrors.CodeValidation, "legal basis is required")
	}

	now := requestcontext.Now(ctx)
	activity.ID = r.ids.NewID()
	activity.CreatedAt = now
	activity.UpdatedAt = now

	if err := r.store.Save(ctx, &activity); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to store processing activity")
	}

	if err := r.appendAudit(ctx, domain.ActionRegisterProcessing, &activity, map[string]any{
		"activity_id":   activity.ID,
		"subject_count": len(activity.DataSubjects),
	}); err != nil {
		return activity.ID, err
	}

	r.logger.InfoContext(ctx, "processing activity registered",
		"activity_id", activity.ID,
		"purpose", activity.Purpose,
		"legal_basis", activity.LegalBasis.String(),
	)
	return activity.ID, nil
}

// Get returns an activity by id.
func (r *Registry) Get(ctx context.Context, id string) (*domain.ProcessingActivity, error) {
	activity, err := r.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "processing activity not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load processing activity")
	}
	return activity, nil
}

// List returns all activities, oldest first.
func (r *Registry) List(ctx context.Context) ([]domain.ProcessingActivity, error) {
	activities, err := r.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list processing activities")
	}
	return activities, nil
}

// FindReferencing returns every activity whose subject list contains the
// subject. The rights coordinator uses this as the erasure precondition.
func (r *Registry) FindReferencing(ctx context.Context, subjectID string) ([]domain.ProcessingActivity, error) {
	activities, err := r.store.ListReferencing(ctx, subjectID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list processing activities")
	}
	return activities, nil
}

// Delete removes a processing activity.
func (r *Registry) Delete(ctx context.Context, id string) error {
	activity, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "processing activity not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete processing activity")
	}

	if err := r.appendAudit(ctx, domain.ActionDeleteProcessing, activity, map[string]any{
		"activity_id": id,
	}); err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "processing activity deleted", "activity_id", id)
	return nil
}

// RemoveSubject drops a subject from an activity's subject list. Used when a
// subject exercises objection against a single activity without erasing
// their whole record.
func (r *Registry) RemoveSubject(ctx context.Context, activityID, subjectID string) error {
	activity, err := r.Get(ctx, activityID)
	if err != nil {
		return err
	}
	if !activity.References(subjectID) {
		return dErrors.New(dErrors.CodeNotFound, "subject not referenced by activity")
	}

	remaining := make([]string, 0, len(activity.DataSubjects)-1)
	for _, s := range activity.DataSubjects {
		if s != subjectID {
			remaining = append(remaining, s)
		}
	}
	activity.DataSubjects = remaining
	activity.UpdatedAt = requestcontext.Now(ctx)

	if err := r.store.Save(ctx, activity); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store processing activity")
	}

	if err := r.trail.Append(ctx, domain.AuditEvent{
		DataSubjectID:  subjectID,
		Action:         domain.ActionUpdateProcessing,
		Purpose:        activity.Purpose,
		LegalBasis:     activity.LegalBasis,
		DataCategories: activity.DataCategories,
		IPAddress:      requestcontext.ClientIP(ctx),
		UserAgent:      requestcontext.UserAgent(ctx),
		Result:         domain.ResultSuccess,
		Details: map[string]any{
			"activity_id": activityID,
			"change":      "subject_removed",
		},
	}); err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "subject removed from processing activity",
		"activity_id", activityID,
		"subject_id", subjectID,
	)
	return nil
}

// appendAudit records a registry-level event. Activity-scoped events are
// attributed to the system subject since they concern the controller's own
// records rather than one person.
func (r *Registry) appendAudit(ctx context.Context, action string, activity *domain.ProcessingActivity, details map[string]any) error {
	return r.trail.Append(ctx, domain.AuditEvent{
		DataSubjectID:  domain.SystemSubject,
		Action:         action,
		Purpose:        activity.Purpose,
		LegalBasis:     activity.LegalBasis,
		DataCategories: activity.DataCategories,
		IPAddress:      requestcontext.ClientIP(ctx),
		UserAgent:      requestcontext.UserAgent(ctx),
		Result:         domain.ResultSuccess,
		Details:        details,
	})
}
