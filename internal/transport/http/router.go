// Package httptransport is the thin HTTP layer. Handlers delegate to the
// domain services and never embed policy logic.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tutela/internal/audit"
	"tutela/internal/domain"
	"tutela/internal/platform/metrics"
	"tutela/internal/platform/middleware"
	"tutela/internal/regulation"
	"tutela/internal/rights"
	"tutela/internal/transport/http/shared"
)

// SubjectService defines the subject operations the transport needs.
type SubjectService interface {
	Register(ctx context.Context, subject domain.DataSubject) (string, error)
	Get(ctx context.Context, id string) (*domain.DataSubject, error)
}

// ConsentService defines the consent operations the transport needs.
type ConsentService interface {
	Register(ctx context.Context, consent domain.Consent) (string, error)
	Withdraw(ctx context.Context, consentID string) error
	Get(ctx context.Context, id string) (*domain.Consent, error)
	FindBySubject(ctx context.Context, subjectID string) ([]domain.Consent, error)
}

// ProcessingService defines the processing-registry operations the transport
// needs.
type ProcessingService interface {
	Register(ctx context.Context, activity domain.ProcessingActivity) (string, error)
	Get(ctx context.Context, id string) (*domain.ProcessingActivity, error)
	List(ctx context.Context) ([]domain.ProcessingActivity, error)
	Delete(ctx context.Context, id string) error
	RemoveSubject(ctx context.Context, activityID, subjectID string) error
}

// ComplianceService defines the evaluation operations the transport needs.
type ComplianceService interface {
	CheckProcessingCompliance(ctx context.Context, activity domain.ProcessingActivity, rs regulation.RuleSet) (*domain.ComplianceCheck, error)
	CheckDataSubjectRights(ctx context.Context, subjectID string, rs regulation.RuleSet) (*domain.ComplianceCheck, error)
}

// RightsService defines the rights operations the transport needs.
type RightsService interface {
	Erase(ctx context.Context, subjectID string) error
	ExportPortabilityReport(ctx context.Context, subjectID string) (*rights.PortabilityReport, error)
}

// AuditService defines the audit-query operation the transport needs.
type AuditService interface {
	Query(ctx context.Context, filter audit.Filter) ([]domain.AuditEvent, error)
}

// Dependencies carries everything the router wires together.
type Dependencies struct {
	Subjects    SubjectService
	Consents    ConsentService
	Processings ProcessingService
	Compliance  ComplianceService
	Rights      RightsService
	Audit       AuditService

	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	JWTValidator   middleware.JWTValidator
	RequestTimeout time.Duration
}

// NewRouter wires all public endpoints. Mutating routes require a bearer
// token when a validator is configured.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := deps.RequestTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	h := &handler{deps: deps}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Latency(deps.Metrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)

		// Queries.
		r.Get("/subjects/{id}", h.getSubject)
		r.Get("/subjects/{id}/consents", h.listConsentsBySubject)
		r.Get("/subjects/{id}/export", h.exportPortability)
		r.Get("/consents/{id}", h.getConsent)
		r.Get("/processing", h.listProcessing)
		r.Get("/processing/{id}", h.getProcessing)
		r.Post("/compliance/check", h.checkProcessing)
		r.Get("/compliance/subjects/{id}/rights", h.checkSubjectRights)
		r.Get("/audit", h.queryAudit)

		// Commands.
		r.Group(func(r chi.Router) {
			if deps.JWTValidator != nil {
				r.Use(middleware.RequireAuth(deps.JWTValidator, logger))
			}
			r.Post("/subjects", h.registerSubject)
			r.Delete("/subjects/{id}", h.eraseSubject)
			r.Post("/consents", h.registerConsent)
			r.Post("/consents/{id}/withdraw", h.withdrawConsent)
			r.Post("/processing", h.registerProcessing)
			r.Delete("/processing/{id}", h.deleteProcessing)
			r.Delete("/processing/{id}/subjects/{subjectID}", h.removeProcessingSubject)
		})
	})

	return r
}

type handler struct {
	deps Dependencies
}

// ruleSetFromRequest resolves the regime tag from a request value.
func ruleSetFromRequest(regime string) (regulation.RuleSet, error) {
	rs, ok := regulation.RuleSetFor(regime)
	if !ok {
		return regulation.RuleSet{}, errUnknownRegime
	}
	return rs, nil
}
