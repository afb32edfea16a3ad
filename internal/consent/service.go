package consent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mssola/useragent"

	"tutela/internal/audit"
	"tutela/internal/domain"
	"tutela/internal/identifier"
	dErrors "tutela/pkg/domain-errors"
	"tutela/pkg/platform/keylock"
	"tutela/pkg/platform/sentinel"
	"tutela/pkg/requestcontext"
)

// SubjectResolver confirms a data subject exists before a consent may
// reference it.
type SubjectResolver interface {
	Get(ctx context.Context, id string) (*domain.DataSubject, error)
}

// AuditAppender is the slice of the audit trail the ledger needs.
type AuditAppender interface {
	Append(ctx context.Context, event domain.AuditEvent) error
}

var _ AuditAppender = (*audit.Trail)(nil)

// Ledger records and withdraws purpose-scoped consents. Withdrawal happens
// at most once per consent; a second withdrawal is an invalid-state error so
// the original withdrawal date is never overwritten.
type Ledger struct {
	store    Store
	subjects SubjectResolver
	ids      identifier.Generator
	trail    AuditAppender
	locks    *keylock.KeyLock
	logger   *slog.Logger
}

// Option configures the Ledger.
type Option func(*Ledger)

// WithLogger sets a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// NewLedger constructs a Ledger. locks must be the same KeyLock the rights
// coordinator uses so consent registration and erasure serialize per subject.
func NewLedger(store Store, subjects SubjectResolver, ids identifier.Generator, trail AuditAppender, locks *keylock.KeyLock, opts ...Option) *Ledger {
	l := &Ledger{
		store:    store,
		subjects: subjects,
		ids:      ids,
		trail:    trail,
		locks:    locks,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Register records a consent for an existing subject and returns its id.
func (l *Ledger) Register(ctx context.Context, consent domain.Consent) (string, error) {
	if consent.DataSubjectID == "" {
		return "", dErrors.New(dErrors.CodeValidation, "data subject id is required")
	}
	if consent.Purpose == "" {
		return "", dErrors.New(dErrors.CodeValidation, "purpose is required")
	}
	if consent.Method != "" && !consent.Method.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "invalid consent method")
	}

	unlock := l.locks.Lock(consent.DataSubjectID)
	defer unlock()

	if _, err := l.subjects.Get(ctx, consent.DataSubjectID); err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "data subject not found")
		}
		return "", err
	}

	now := requestcontext.Now(ctx)
	consent.ID = l.ids.NewID()
	consent.CreatedAt = now
	consent.UpdatedAt = now
	if consent.ConsentDate.IsZero() {
		consent.ConsentDate = now
	}
	l.fillCapture(ctx, &consent)

	if err := l.store.Save(ctx, &consent); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to store consent")
	}

	if err := l.trail.Append(ctx, domain.AuditEvent{
		DataSubjectID:  consent.DataSubjectID,
		Action:         domain.ActionRegisterConsent,
		Purpose:        consent.Purpose,
		LegalBasis:     domain.BasisConsent,
		DataCategories: consent.DataCategories,
		IPAddress:      consent.Capture.IPAddress,
		UserAgent:      consent.Capture.UserAgent,
		Result:         domain.ResultSuccess,
		Details: map[string]any{
			"consent_id": consent.ID,
			"method":     consent.Method.String(),
			"given":      consent.Given,
		},
	}); err != nil {
		return consent.ID, err
	}

	l.logger.InfoContext(ctx, "consent registered",
		"consent_id", consent.ID,
		"subject_id", consent.DataSubjectID,
		"purpose", consent.Purpose,
	)
	return consent.ID, nil
}

// fillCapture completes the capture context from the request context and
// derives a short agent summary for reports.
func (l *Ledger) fillCapture(ctx context.Context, consent *domain.Consent) {
	if consent.Capture.IPAddress == "" {
		consent.Capture.IPAddress = requestcontext.ClientIP(ctx)
	}
	if consent.Capture.UserAgent == "" {
		consent.Capture.UserAgent = requestcontext.UserAgent(ctx)
	}
	if consent.Capture.AgentSummary == "" && consent.Capture.UserAgent != "" {
		ua := useragent.New(consent.Capture.UserAgent)
		name, version := ua.Browser()
		consent.Capture.AgentSummary = fmt.Sprintf("%s %s on %s", name, version, ua.OS())
	}
}

// Withdraw marks a consent as withdrawn. Withdrawing an already-withdrawn
// consent fails with an invalid-state error; the first withdrawal date is
// authoritative.
func (l *Ledger) Withdraw(ctx context.Context, consentID string) error {
	consent, err := l.store.FindByID(ctx, consentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "consent not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load consent")
	}

	unlock := l.locks.Lock(consent.DataSubjectID)
	defer unlock()

	// Re-read under the lock; a concurrent withdraw may have won.
	consent, err = l.store.FindByID(ctx, consentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "consent not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load consent")
	}
	if consent.Withdrawn {
		return dErrors.New(dErrors.CodeInvalidState, "consent already withdrawn")
	}

	now := requestcontext.Now(ctx)
	consent.Withdrawn = true
	consent.WithdrawalDate = &now
	consent.UpdatedAt = now

	if err := l.store.Save(ctx, consent); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store withdrawal")
	}

	if err := l.trail.Append(ctx, domain.AuditEvent{
		DataSubjectID:  consent.DataSubjectID,
		Action:         domain.ActionWithdrawConsent,
		Purpose:        consent.Purpose,
		LegalBasis:     domain.BasisConsent,
		DataCategories: consent.DataCategories,
		IPAddress:      requestcontext.ClientIP(ctx),
		UserAgent:      requestcontext.UserAgent(ctx),
		Result:         domain.ResultSuccess,
		Details: map[string]any{
			"consent_id":      consentID,
			"withdrawal_date": now,
		},
	}); err != nil {
		return err
	}

	l.logger.InfoContext(ctx, "consent withdrawn",
		"consent_id", consentID,
		"subject_id", consent.DataSubjectID,
	)
	return nil
}

// Get returns a consent by id.
func (l *Ledger) Get(ctx context.Context, id string) (*domain.Consent, error) {
	consent, err := l.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "consent not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load consent")
	}
	return consent, nil
}

// FindBySubject lists all consents for a subject, oldest first.
func (l *Ledger) FindBySubject(ctx context.Context, subjectID string) ([]domain.Consent, error) {
	consents, err := l.store.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list consents")
	}
	return consents, nil
}

// FindValid returns the first consent that currently authorizes processing
// for the purpose (given, not withdrawn, exact purpose match), or nil when
// none does. Absence is data for the regulation engine, not an error.
func (l *Ledger) FindValid(ctx context.Context, subjectID, purpose string) (*domain.Consent, error) {
	consents, err := l.store.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list consents")
	}
	for i := range consents {
		if consents[i].Valid(purpose) {
			return &consents[i], nil
		}
	}
	return nil, nil
}

// DeleteBySubject removes every consent for a subject. Called only by the
// rights coordinator as part of the erasure cascade; emits no audit events
// itself because the coordinator's deletion event covers the cascade.
func (l *Ledger) DeleteBySubject(ctx context.Context, subjectID string) (int, error) {
	removed, err := l.store.DeleteBySubject(ctx, subjectID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete consents")
	}
	return removed, nil
}
