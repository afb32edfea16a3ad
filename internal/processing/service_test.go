package processing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutela/internal/audit"
	"tutela/internal/domain"
	"tutela/internal/identifier"
	dErrors "tutela/pkg/domain-errors"
)

func newTestRegistry(t *testing.T) (*Registry, *audit.InMemoryStore) {
	t.Helper()
	auditStore := audit.NewInMemoryStore()
	trail := audit.NewTrail(auditStore, identifier.NewSequential("evt"))
	registry := NewRegistry(NewInMemoryStore(), identifier.NewSequential("proc"), trail)
	return registry, auditStore
}

func validActivity() domain.ProcessingActivity {
	return domain.ProcessingActivity{
		Purpose:          "marketing",
		LegalBasis:       domain.BasisConsent,
		DataCategories:   []string{"contact"},
		DataSubjects:     []string{"subj-1", "subj-2"},
		RetentionPeriod:  365,
		SecurityMeasures: []string{domain.MeasureEncryption},
	}
}

func TestRegister_StoresActivityAndAudits(t *testing.T) {
	registry, auditStore := newTestRegistry(t)
	ctx := context.Background()

	id, err := registry.Register(ctx, validActivity())
	require.NoError(t, err)
	assert.Equal(t, "proc-1", id)

	got, err := registry.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "marketing", got.Purpose)

	events, err := auditStore.Query(ctx, audit.Filter{SubjectID: domain.SystemSubject})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.ActionRegisterProcessing, events[0].Action)
}

func TestRegister_DoesNotRequireConsentUpFront(t *testing.T) {
	registry, _ := newTestRegistry(t)

	// Registration is a declaration; an activity referencing subjects with
	// no consent on file must still be accepted.
	activity := validActivity()
	activity.DataSubjects = []string{"never-consented"}
	_, err := registry.Register(context.Background(), activity)
	require.NoError(t, err)
}

func TestRegister_RejectsMissingFields(t *testing.T) {
	registry, _ := newTestRegistry(t)

	cases := map[string]func(*domain.ProcessingActivity){
		"purpose":     func(a *domain.ProcessingActivity) { a.Purpose = "" },
		"legal basis": func(a *domain.ProcessingActivity) { a.LegalBasis = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			a := validActivity()
			mutate(&a)
			_, err := registry.Register(context.Background(), a)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestFindReferencing_MatchesSubjectList(t *testing.T) {
	registry, _ := newTestRegistry(t)
	ctx := context.Background()

	first, err := registry.Register(ctx, validActivity())
	require.NoError(t, err)

	other := validActivity()
	other.DataSubjects = []string{"subj-3"}
	_, err = registry.Register(ctx, other)
	require.NoError(t, err)

	referencing, err := registry.FindReferencing(ctx, "subj-1")
	require.NoError(t, err)
	require.Len(t, referencing, 1)
	assert.Equal(t, first, referencing[0].ID)

	none, err := registry.FindReferencing(ctx, "subj-99")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDelete_RemovesActivityAndAudits(t *testing.T) {
	registry, auditStore := newTestRegistry(t)
	ctx := context.Background()

	id, err := registry.Register(ctx, validActivity())
	require.NoError(t, err)
	require.NoError(t, registry.Delete(ctx, id))

	_, err = registry.Get(ctx, id)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	events, err := auditStore.Query(ctx, audit.Filter{SubjectID: domain.SystemSubject})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.ActionDeleteProcessing, events[0].Action)
}

func TestDelete_UnknownIDReturnsNotFound(t *testing.T) {
	registry, _ := newTestRegistry(t)
	err := registry.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestRemoveSubject_DropsReferenceAndAudits(t *testing.T) {
	registry, auditStore := newTestRegistry(t)
	ctx := context.Background()

	id, err := registry.Register(ctx, validActivity())
	require.NoError(t, err)
	require.NoError(t, registry.RemoveSubject(ctx, id, "subj-1"))

	got, err := registry.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"subj-2"}, got.DataSubjects)

	events, err := auditStore.Query(ctx, audit.Filter{SubjectID: "subj-1"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.ActionUpdateProcessing, events[0].Action)

	err = registry.RemoveSubject(ctx, id, "subj-1")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
