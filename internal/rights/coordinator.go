package rights

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"tutela/internal/audit"
	"tutela/internal/domain"
	"tutela/internal/platform/metrics"
	"tutela/internal/platform/tracer"
	dErrors "tutela/pkg/domain-errors"
	"tutela/pkg/platform/keylock"
	"tutela/pkg/requestcontext"
)

// SubjectService is the slice of the subject registry the coordinator needs.
// Delete is expected to emit the delete_data_subject audit event; the
// coordinator emits none of its own during erasure.
type SubjectService interface {
	Get(ctx context.Context, id string) (*domain.DataSubject, error)
	Delete(ctx context.Context, id string) error
}

// ConsentService is the slice of the consent ledger the coordinator needs.
type ConsentService interface {
	FindBySubject(ctx context.Context, subjectID string) ([]domain.Consent, error)
	DeleteBySubject(ctx context.Context, subjectID string) (int, error)
}

// ProcessingService answers the erasure precondition.
type ProcessingService interface {
	FindReferencing(ctx context.Context, subjectID string) ([]domain.ProcessingActivity, error)
}

// AuditService reads the trail for exports and records the export itself.
type AuditService interface {
	Append(ctx context.Context, event domain.AuditEvent) error
	Query(ctx context.Context, filter audit.Filter) ([]domain.AuditEvent, error)
}

// Coordinator implements the subject-rights operations that span several
// registries: erasure and portability export.
type Coordinator struct {
	subjects    SubjectService
	consents    ConsentService
	processings ProcessingService
	trail       AuditService
	locks       *keylock.KeyLock
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// Option configures the Coordinator.
type Option func(*Coordinator)

// WithLogger sets a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithMetrics enables erasure metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// NewCoordinator constructs a Coordinator. locks must be the KeyLock shared
// with the consent ledger so an erase cannot interleave with a concurrent
// consent registration for the same subject.
func NewCoordinator(subjects SubjectService, consents ConsentService, processings ProcessingService, trail AuditService, locks *keylock.KeyLock, opts ...Option) *Coordinator {
	c := &Coordinator{
		subjects:    subjects,
		consents:    consents,
		processings: processings,
		trail:       trail,
		locks:       locks,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Erase removes a subject and all their consents. It refuses while any
// processing activity still references the subject; callers must delete or
// amend those activities first. The audit trail is left intact: prior events
// referencing the subject are evidence, not personal-data storage subject to
// the cascade.
func (c *Coordinator) Erase(ctx context.Context, subjectID string) error {
	ctx, span := tracer.StartSpan(ctx, "rights.erase",
		trace.WithAttributes(tracer.StringAttr("subject.id", subjectID)),
	)
	defer span.End()

	unlock := c.locks.Lock(subjectID)
	defer unlock()

	if _, err := c.subjects.Get(ctx, subjectID); err != nil {
		return err
	}

	referencing, err := c.processings.FindReferencing(ctx, subjectID)
	if err != nil {
		tracer.RecordError(span, err)
		return err
	}
	if len(referencing) > 0 {
		return dErrors.New(dErrors.CodeInvalidState, "active processing references subject")
	}

	removed, err := c.consents.DeleteBySubject(ctx, subjectID)
	if err != nil {
		tracer.RecordError(span, err)
		return err
	}

	// Emits the single delete_data_subject event for the whole cascade.
	if err := c.subjects.Delete(ctx, subjectID); err != nil {
		tracer.RecordError(span, err)
		return err
	}

	c.metrics.IncrementSubjectsErased()
	c.logger.InfoContext(ctx, "subject erased",
		"subject_id", subjectID,
		"consents_removed", removed,
	)
	return nil
}

// ExportPortabilityReport assembles the full denormalized export for a
// subject and records the export in the audit trail.
func (c *Coordinator) ExportPortabilityReport(ctx context.Context, subjectID string) (*PortabilityReport, error) {
	ctx, span := tracer.StartSpan(ctx, "rights.export_portability",
		trace.WithAttributes(tracer.StringAttr("subject.id", subjectID)),
	)
	defer span.End()

	subject, err := c.subjects.Get(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	consents, err := c.consents.FindBySubject(ctx, subjectID)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	events, err := c.trail.Query(ctx, audit.Filter{SubjectID: subjectID})
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	report := &PortabilityReport{
		Subject: SubjectSummary{
			ID:        subject.ID,
			Name:      subject.Name,
			Email:     subject.Email,
			Document:  subject.Document,
			CreatedAt: subject.CreatedAt,
		},
		Consents:    make([]ConsentEntry, 0, len(consents)),
		AuditTrail:  make([]AuditEntry, 0, len(events)),
		GeneratedAt: requestcontext.Now(ctx),
		Format:      reportFormat,
		Version:     reportVersion,
	}
	for _, consent := range consents {
		report.Consents = append(report.Consents, ConsentEntry{
			ID:             consent.ID,
			Purpose:        consent.Purpose,
			DataCategories: consent.DataCategories,
			Given:          consent.Given,
			ConsentDate:    consent.ConsentDate,
			Method:         consent.Method.String(),
			Withdrawn:      consent.Withdrawn,
			WithdrawalDate: consent.WithdrawalDate,
		})
	}
	for _, event := range events {
		report.AuditTrail = append(report.AuditTrail, AuditEntry{
			Action:         event.Action,
			Purpose:        event.Purpose,
			LegalBasis:     event.LegalBasis.String(),
			DataCategories: event.DataCategories,
			Actor:          event.Actor,
			Timestamp:      event.Timestamp,
			Result:         string(event.Result),
		})
	}

	if err := c.trail.Append(ctx, domain.AuditEvent{
		DataSubjectID:  subjectID,
		Action:         domain.ActionExportPortability,
		Purpose:        "data_portability",
		LegalBasis:     domain.BasisConsent,
		DataCategories: subject.DataCategories,
		IPAddress:      requestcontext.ClientIP(ctx),
		UserAgent:      requestcontext.UserAgent(ctx),
		Result:         domain.ResultSuccess,
		Details: map[string]any{
			"consent_count": len(consents),
			"event_count":   len(events),
			"format":        reportFormat,
			"version":       reportVersion,
		},
	}); err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "portability report exported", "subject_id", subjectID)
	return report, nil
}
