package regulation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutela/internal/audit"
	"tutela/internal/consent"
	"tutela/internal/domain"
	"tutela/internal/identifier"
	"tutela/internal/subject"
	dErrors "tutela/pkg/domain-errors"
	"tutela/pkg/platform/keylock"
)

type engineFixture struct {
	engine   *Engine
	subjects *subject.Registry
	consents *consent.Ledger
}

func newEngineFixture(t *testing.T) engineFixture {
	t.Helper()
	trail := audit.NewTrail(audit.NewInMemoryStore(), identifier.NewSequential("evt"))
	subjects := subject.NewRegistry(subject.NewInMemoryStore(), identifier.NewSequential("subj"), trail)
	consents := consent.NewLedger(consent.NewInMemoryStore(), subjects, identifier.NewSequential("cons"), trail, keylock.New())
	return engineFixture{
		engine:   NewEngine(consents, subjects),
		subjects: subjects,
		consents: consents,
	}
}

func compliantActivity(subjectID string) domain.ProcessingActivity {
	return domain.ProcessingActivity{
		ID:             "proc-1",
		Purpose:        "scoring",
		LegalBasis:     domain.BasisConsent,
		DataCategories: []string{"financial"},
		DataSubjects:   []string{subjectID},
		SecurityMeasures: []string{
			domain.MeasureEncryption,
			domain.MeasureAccessControl,
			domain.MeasureAuditLogging,
			domain.MeasureBackup,
			domain.MeasureAnonymization,
		},
		ProtectionContact: "dpo@example.com",
	}
}

func ruleNames(violations []domain.Violation) []string {
	out := make([]string, 0, len(violations))
	for _, v := range violations {
		out = append(out, v.Rule)
	}
	return out
}

func TestCheckProcessingCompliance_ConsentGatesThePass(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()

	subjectID, err := fx.subjects.Register(ctx, domain.DataSubject{
		Name:           "Ana",
		Document:       "111",
		DataCategories: []string{"financial"},
	})
	require.NoError(t, err)
	activity := compliantActivity(subjectID)

	check, err := fx.engine.CheckProcessingCompliance(ctx, activity, RegimeA())
	require.NoError(t, err)
	assert.False(t, check.Passed)
	require.Len(t, check.Violations, 1)
	assert.Equal(t, "consent_required", check.Violations[0].Rule)
	assert.Equal(t, "Art. 9º", check.Violations[0].Article)

	_, err = fx.consents.Register(ctx, domain.Consent{
		DataSubjectID: subjectID,
		Purpose:       "scoring",
		Given:         true,
		Method:        domain.ConsentMethodExplicit,
	})
	require.NoError(t, err)

	check, err = fx.engine.CheckProcessingCompliance(ctx, activity, RegimeA())
	require.NoError(t, err)
	assert.True(t, check.Passed)
	assert.Empty(t, check.Violations)
	require.Len(t, check.Recommendations, 5)
	for _, right := range []string{"access", "correction", "deletion", "portability", "information"} {
		assert.Contains(t, recommendationRules(check.Recommendations), "right_"+right)
	}
	assert.Equal(t, 5, check.Details.RecommendationCount)
}

func recommendationRules(recommendations []domain.Recommendation) []string {
	out := make([]string, 0, len(recommendations))
	for _, r := range recommendations {
		out = append(out, r.Rule)
	}
	return out
}

func TestCheckProcessingCompliance_WithdrawnConsentIsInvalidNotMissing(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()

	subjectID, err := fx.subjects.Register(ctx, domain.DataSubject{
		Name: "Ana", Document: "111", DataCategories: []string{"financial"},
	})
	require.NoError(t, err)

	consentID, err := fx.consents.Register(ctx, domain.Consent{
		DataSubjectID: subjectID,
		Purpose:       "scoring",
		Given:         true,
		Method:        domain.ConsentMethodExplicit,
	})
	require.NoError(t, err)
	require.NoError(t, fx.consents.Withdraw(ctx, consentID))

	check, err := fx.engine.CheckProcessingCompliance(ctx, compliantActivity(subjectID), RegimeA())
	require.NoError(t, err)
	assert.False(t, check.Passed)
	require.Len(t, check.Violations, 1)
	assert.Equal(t, "consent_invalid", check.Violations[0].Rule)
}

func TestCheckProcessingCompliance_OnlyFirstSubjectIsConsentChecked(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()

	first, err := fx.subjects.Register(ctx, domain.DataSubject{
		Name: "Ana", Document: "111", DataCategories: []string{"financial"},
	})
	require.NoError(t, err)
	_, err = fx.consents.Register(ctx, domain.Consent{
		DataSubjectID: first,
		Purpose:       "scoring",
		Given:         true,
		Method:        domain.ConsentMethodExplicit,
	})
	require.NoError(t, err)

	// The second subject has no consent on file; only the first is checked.
	activity := compliantActivity(first)
	activity.DataSubjects = append(activity.DataSubjects, "subj-without-consent")

	check, err := fx.engine.CheckProcessingCompliance(ctx, activity, RegimeA())
	require.NoError(t, err)
	assert.True(t, check.Passed)
}

func TestCheckProcessingCompliance_PrinciplesViolations(t *testing.T) {
	fx := newEngineFixture(t)

	activity := compliantActivity("subj-1")
	activity.LegalBasis = domain.BasisContract
	activity.Purpose = ""
	activity.DataCategories = nil
	activity.DataSubjects = nil
	activity.ProtectionContact = ""

	check, err := fx.engine.CheckProcessingCompliance(context.Background(), activity, RegimeB())
	require.NoError(t, err)
	assert.False(t, check.Passed)
	assert.ElementsMatch(t,
		[]string{"purpose_specification", "data_categories", "data_subjects", "protection_contact"},
		ruleNames(check.Violations),
	)

	var contact domain.Violation
	for _, v := range check.Violations {
		if v.Rule == "protection_contact" {
			contact = v
		}
	}
	assert.Equal(t, domain.SeverityMedium, contact.Severity)
	assert.Equal(t, "Art. 5(1)(d)", contact.Article)
}

func TestCheckProcessingCompliance_UnknownLegalBasis(t *testing.T) {
	fx := newEngineFixture(t)

	activity := compliantActivity("subj-1")
	activity.LegalBasis = "curiosity"

	check, err := fx.engine.CheckProcessingCompliance(context.Background(), activity, RegimeA())
	require.NoError(t, err)
	assert.Contains(t, ruleNames(check.Violations), "legal_basis")
}

func TestCheckProcessingCompliance_SecurityMeasures(t *testing.T) {
	fx := newEngineFixture(t)

	activity := compliantActivity("subj-1")
	activity.LegalBasis = domain.BasisContract
	activity.SecurityMeasures = []string{domain.MeasureEncryption, domain.MeasureBackup}

	check, err := fx.engine.CheckProcessingCompliance(context.Background(), activity, RegimeA())
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{"security_access_control", "security_audit_logging", "security_anonymization"},
		ruleNames(check.Violations),
	)
}

func TestCheckProcessingCompliance_CrossBorderTransfer(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()

	base := compliantActivity("subj-1")
	base.LegalBasis = domain.BasisContract

	t.Run("inadequate country", func(t *testing.T) {
		activity := base
		activity.CrossBorderTransfer = true
		activity.TransferCountries = []string{"Brazil"}
		check, err := fx.engine.CheckProcessingCompliance(ctx, activity, RegimeA())
		require.NoError(t, err)
		assert.Equal(t, []string{"transfer_adequacy"}, ruleNames(check.Violations))
	})

	t.Run("adequate country", func(t *testing.T) {
		activity := base
		activity.CrossBorderTransfer = true
		activity.TransferCountries = []string{"EU"}
		check, err := fx.engine.CheckProcessingCompliance(ctx, activity, RegimeA())
		require.NoError(t, err)
		assert.True(t, check.Passed)
	})

	t.Run("countries unspecified", func(t *testing.T) {
		activity := base
		activity.CrossBorderTransfer = true
		check, err := fx.engine.CheckProcessingCompliance(ctx, activity, RegimeA())
		require.NoError(t, err)
		assert.Equal(t, []string{"transfer_countries"}, ruleNames(check.Violations))
	})

	t.Run("no transfer declared", func(t *testing.T) {
		activity := base
		activity.TransferCountries = []string{"Brazil"}
		check, err := fx.engine.CheckProcessingCompliance(ctx, activity, RegimeA())
		require.NoError(t, err)
		assert.True(t, check.Passed)
	})
}

func TestCheckProcessingCompliance_RegimeBAdvisoryMeasures(t *testing.T) {
	fx := newEngineFixture(t)

	activity := compliantActivity("subj-1")
	activity.LegalBasis = domain.BasisContract

	check, err := fx.engine.CheckProcessingCompliance(context.Background(), activity, RegimeB())
	require.NoError(t, err)
	assert.True(t, check.Passed)
	// Five rights recommendations plus three absent advisory measures.
	require.Len(t, check.Recommendations, 8)
	rules := recommendationRules(check.Recommendations)
	assert.Contains(t, rules, "right_to_be_forgotten")
	assert.Contains(t, rules, "data_portability")
	assert.Contains(t, rules, "privacy_by_design")

	activity.SecurityMeasures = append(activity.SecurityMeasures,
		"right_to_be_forgotten", "data_portability", "privacy_by_design")
	check, err = fx.engine.CheckProcessingCompliance(context.Background(), activity, RegimeB())
	require.NoError(t, err)
	assert.Len(t, check.Recommendations, 5)
}

func TestCheckProcessingCompliance_IsDeterministic(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()

	activity := compliantActivity("subj-1")
	activity.SecurityMeasures = nil
	activity.CrossBorderTransfer = true
	activity.TransferCountries = []string{"Brazil", "Canada", "Elbonia"}

	first, err := fx.engine.CheckProcessingCompliance(ctx, activity, RegimeB())
	require.NoError(t, err)
	second, err := fx.engine.CheckProcessingCompliance(ctx, activity, RegimeB())
	require.NoError(t, err)

	assert.Equal(t, first.Violations, second.Violations)
	assert.Equal(t, first.Recommendations, second.Recommendations)
	assert.Equal(t, first.Passed, second.Passed)
}

func TestCheckDataSubjectRights(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()

	t.Run("unknown subject fails with one lookup violation", func(t *testing.T) {
		check, err := fx.engine.CheckDataSubjectRights(ctx, "ghost", RegimeB())
		require.NoError(t, err)
		assert.False(t, check.Passed)
		require.Len(t, check.Violations, 1)
		assert.Equal(t, "subject_lookup", check.Violations[0].Rule)
		assert.Equal(t, "Art. 15", check.Violations[0].Article)
		assert.Empty(t, check.Recommendations)
	})

	t.Run("known subject passes with rights recommendations", func(t *testing.T) {
		subjectID, err := fx.subjects.Register(ctx, domain.DataSubject{
			Name: "Ana", Document: "111", DataCategories: []string{"financial"},
		})
		require.NoError(t, err)

		check, err := fx.engine.CheckDataSubjectRights(ctx, subjectID, RegimeA())
		require.NoError(t, err)
		assert.True(t, check.Passed)
		assert.Len(t, check.Recommendations, 5)
		assert.Equal(t, subjectID, check.Details.DataSubjectID)
	})
}

type fakeCache struct {
	entries map[string]*domain.ComplianceCheck
	hits    int
}

func (f *fakeCache) Get(_ context.Context, key string) (*domain.ComplianceCheck, bool, error) {
	check, ok := f.entries[key]
	if ok {
		f.hits++
	}
	return check, ok, nil
}

func (f *fakeCache) Set(_ context.Context, key string, check *domain.ComplianceCheck) error {
	f.entries[key] = check
	return nil
}

func TestCheckDataSubjectRights_UsesCache(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()
	cache := &fakeCache{entries: make(map[string]*domain.ComplianceCheck)}
	engine := NewEngine(fx.consents, fx.subjects, WithCheckCache(cache))

	subjectID, err := fx.subjects.Register(ctx, domain.DataSubject{
		Name: "Ana", Document: "111", DataCategories: []string{"financial"},
	})
	require.NoError(t, err)

	first, err := engine.CheckDataSubjectRights(ctx, subjectID, RegimeA())
	require.NoError(t, err)
	second, err := engine.CheckDataSubjectRights(ctx, subjectID, RegimeA())
	require.NoError(t, err)

	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, first, second)
}

func TestRuleSetFor(t *testing.T) {
	a, ok := RuleSetFor("regime_a")
	require.True(t, ok)
	assert.Equal(t, "regime_a", a.Regime)

	b, ok := RuleSetFor("regime_b")
	require.True(t, ok)
	assert.Len(t, b.AdvisoryMeasures, 3)

	_, ok = RuleSetFor("regime_c")
	assert.False(t, ok)
}

func TestCheckProcessingCompliance_StoreFailurePropagates(t *testing.T) {
	subjects := subject.NewRegistry(subject.NewInMemoryStore(), identifier.NewSequential("subj"),
		audit.NewTrail(audit.NewInMemoryStore(), identifier.NewSequential("evt")))
	engine := NewEngine(failingConsents{}, subjects)

	activity := compliantActivity("subj-1")
	_, err := engine.CheckProcessingCompliance(context.Background(), activity, RegimeA())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

type failingConsents struct{}

func (failingConsents) FindValid(context.Context, string, string) (*domain.Consent, error) {
	return nil, dErrors.New(dErrors.CodeUnavailable, "store offline")
}

func (failingConsents) FindBySubject(context.Context, string) ([]domain.Consent, error) {
	return nil, dErrors.New(dErrors.CodeUnavailable, "store offline")
}
