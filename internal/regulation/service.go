package regulation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"tutela/internal/domain"
	"tutela/internal/platform/tracer"
	"tutela/internal/regulation/metrics"
	dErrors "tutela/pkg/domain-errors"
	"tutela/pkg/requestcontext"
)

// ConsentReader is the slice of the consent ledger the engine needs.
// FindValid returns nil without error when no consent authorizes the
// purpose; absence is a finding, not a failure.
type ConsentReader interface {
	FindValid(ctx context.Context, subjectID, purpose string) (*domain.Consent, error)
	FindBySubject(ctx context.Context, subjectID string) ([]domain.Consent, error)
}

// SubjectResolver resolves data subjects for the rights check.
type SubjectResolver interface {
	Get(ctx context.Context, id string) (*domain.DataSubject, error)
}

// Engine evaluates processing activities and subjects against a RuleSet.
// It is a pure evaluator: rule failures come back as violations and
// recommendations inside the ComplianceCheck, never as errors. Errors are
// reserved for unresolvable references and store failures.
type Engine struct {
	consents ConsentReader
	subjects SubjectResolver
	cache    CheckCache
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics enables evaluation metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithCheckCache enables the subject-rights result cache.
func WithCheckCache(cache CheckCache) Option {
	return func(e *Engine) { e.cache = cache }
}

// NewEngine constructs an Engine.
func NewEngine(consents ConsentReader, subjects SubjectResolver, opts ...Option) *Engine {
	e := &Engine{
		consents: consents,
		subjects: subjects,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CheckProcessingCompliance evaluates one activity under one rule set. The
// checks run in a fixed order and every check always runs; repeated calls on
// an unmodified activity return identical findings.
func (e *Engine) CheckProcessingCompliance(ctx context.Context, activity domain.ProcessingActivity, rs RuleSet) (*domain.ComplianceCheck, error) {
	ctx, span := tracer.StartSpan(ctx, "regulation.check_processing",
		trace.WithAttributes(
			tracer.StringAttr("regime", rs.Regime),
			tracer.StringAttr("activity.id", activity.ID),
		),
	)
	defer span.End()
	started := time.Now()

	var violations []domain.Violation
	var recommendations []domain.Recommendation

	violations = append(violations, checkPrinciples(rs, activity)...)
	violations = append(violations, checkLegalBasis(rs, activity)...)

	consentViolation, err := e.checkConsentAdequacy(ctx, rs, activity)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}
	violations = append(violations, consentViolation...)

	recommendations = append(recommendations, checkRightsReadiness(rs)...)
	recommendations = append(recommendations, checkAdvisoryMeasures(rs, activity)...)
	violations = append(violations, checkSecurityMeasures(rs, activity)...)
	violations = append(violations, checkCrossBorderTransfer(rs, activity)...)

	check := e.buildCheck(ctx, rs, violations, recommendations, domain.CheckDetails{
		Processing: &activity,
	})
	span.SetAttributes(
		tracer.BoolAttr("check.passed", check.Passed),
		tracer.IntAttr("check.violations", len(violations)),
	)
	e.metrics.ObserveCheck(rs.Regime, check.Passed, len(violations), time.Since(started))

	e.logger.InfoContext(ctx, "processing compliance evaluated",
		"regime", rs.Regime,
		"activity_id", activity.ID,
		"passed", check.Passed,
		"violations", len(violations),
	)
	return check, nil
}

// checkConsentAdequacy applies the consent rule. Only the first referenced
// subject is checked, matching the recorded evaluation behavior for
// multi-subject activities.
func (e *Engine) checkConsentAdequacy(ctx context.Context, rs RuleSet, activity domain.ProcessingActivity) ([]domain.Violation, error) {
	if activity.LegalBasis != domain.BasisConsent || len(activity.DataSubjects) == 0 {
		return nil, nil
	}
	subjectID := activity.DataSubjects[0]

	valid, err := e.consents.FindValid(ctx, subjectID, activity.Purpose)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "consent lookup failed")
	}
	if valid != nil {
		return nil, nil
	}

	existing, err := e.consents.FindBySubject(ctx, subjectID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "consent lookup failed")
	}
	if len(existing) == 0 {
		return []domain.Violation{{
			Article:     rs.Articles.ConsentMissing,
			Rule:        "consent_required",
			Severity:    domain.SeverityHigh,
			Description: "Consent must be obtained for consent-based processing",
		}}, nil
	}
	return []domain.Violation{{
		Article:     rs.Articles.ConsentInvalid,
		Rule:        "consent_invalid",
		Severity:    domain.SeverityHigh,
		Description: "Consent must be valid and not withdrawn",
	}}, nil
}

// CheckDataSubjectRights evaluates the rights posture for one subject. An
// unknown subject is a finding, not an error: the check fails with a single
// lookup violation.
func (e *Engine) CheckDataSubjectRights(ctx context.Context, subjectID string, rs RuleSet) (*domain.ComplianceCheck, error) {
	ctx, span := tracer.StartSpan(ctx, "regulation.check_subject_rights",
		trace.WithAttributes(
			tracer.StringAttr("regime", rs.Regime),
			tracer.StringAttr("subject.id", subjectID),
		),
	)
	defer span.End()

	cacheKey := rs.Regime + ":" + subjectID
	if e.cache != nil {
		cached, ok, err := e.cache.Get(ctx, cacheKey)
		if err != nil {
			// Cache trouble must not fail an evaluation.
			e.logger.WarnContext(ctx, "check cache read failed", "error", err)
		} else if ok {
			e.metrics.IncrementCacheHit()
			return cached, nil
		}
		e.metrics.IncrementCacheMiss()
	}

	started := time.Now()
	details := domain.CheckDetails{DataSubjectID: subjectID}

	var violations []domain.Violation
	var recommendations []domain.Recommendation

	if _, err := e.subjects.Get(ctx, subjectID); err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			tracer.RecordError(span, err)
			return nil, err
		}
		violations = append(violations, domain.Violation{
			Article:     rs.Articles.SubjectLookup,
			Rule:        "subject_lookup",
			Severity:    domain.SeverityHigh,
			Description: "The data subject was not found in the system",
		})
	} else {
		recommendations = append(recommendations, checkRightsReadiness(rs)...)
	}

	check := e.buildCheck(ctx, rs, violations, recommendations, details)
	e.metrics.ObserveCheck(rs.Regime, check.Passed, len(violations), time.Since(started))

	if e.cache != nil {
		if err := e.cache.Set(ctx, cacheKey, check); err != nil {
			e.logger.WarnContext(ctx, "check cache write failed", "error", err)
		}
	}
	return check, nil
}

func (e *Engine) buildCheck(ctx context.Context, rs RuleSet, violations []domain.Violation, recommendations []domain.Recommendation, details domain.CheckDetails) *domain.ComplianceCheck {
	details.ViolationCount = len(violations)
	details.RecommendationCount = len(recommendations)
	return &domain.ComplianceCheck{
		Regime:          rs.Regime,
		Passed:          len(violations) == 0,
		Violations:      violations,
		Recommendations: recommendations,
		Timestamp:       requestcontext.Now(ctx),
		Details:         details,
	}
}
