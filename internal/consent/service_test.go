package consent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutela/internal/audit"
	"tutela/internal/domain"
	"tutela/internal/identifier"
	dErrors "tutela/pkg/domain-errors"
	"tutela/pkg/platform/keylock"
	"tutela/pkg/requestcontext"
)

type fakeSubjects struct {
	known map[string]bool
}

func (f *fakeSubjects) Get(_ context.Context, id string) (*domain.DataSubject, error) {
	if !f.known[id] {
		return nil, dErrors.New(dErrors.CodeNotFound, "data subject not found")
	}
	return &domain.DataSubject{ID: id}, nil
}

func newTestLedger(t *testing.T, subjectIDs ...string) (*Ledger, *audit.InMemoryStore) {
	t.Helper()
	known := make(map[string]bool, len(subjectIDs))
	for _, id := range subjectIDs {
		known[id] = true
	}
	auditStore := audit.NewInMemoryStore()
	trail := audit.NewTrail(auditStore, identifier.NewSequential("evt"))
	ledger := NewLedger(NewInMemoryStore(), &fakeSubjects{known: known}, identifier.NewSequential("cons"), trail, keylock.New())
	return ledger, auditStore
}

func validConsent() domain.Consent {
	return domain.Consent{
		DataSubjectID:  "subj-1",
		Purpose:        "marketing",
		DataCategories: []string{"contact"},
		Given:          true,
		Method:         domain.ConsentMethodExplicit,
	}
}

func TestRegister_StoresConsentAndAudits(t *testing.T) {
	ledger, auditStore := newTestLedger(t, "subj-1")
	fixed := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), fixed)
	ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.7", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")

	id, err := ledger.Register(ctx, validConsent())
	require.NoError(t, err)
	assert.Equal(t, "cons-1", id)

	stored, err := ledger.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, fixed, stored.ConsentDate)
	assert.Equal(t, "203.0.113.7", stored.Capture.IPAddress)
	assert.Contains(t, stored.Capture.AgentSummary, "Chrome")
	assert.False(t, stored.Withdrawn)

	events, err := auditStore.Query(ctx, audit.Filter{SubjectID: "subj-1"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.ActionRegisterConsent, events[0].Action)
	assert.Equal(t, "marketing", events[0].Purpose)
	assert.Equal(t, "203.0.113.7", events[0].IPAddress)
}

func TestRegister_UnknownSubjectReturnsNotFound(t *testing.T) {
	ledger, auditStore := newTestLedger(t)

	_, err := ledger.Register(context.Background(), validConsent())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	events, err := auditStore.Query(context.Background(), audit.Filter{})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRegister_RejectsInvalidInput(t *testing.T) {
	ledger, _ := newTestLedger(t, "subj-1")

	cases := map[string]func(*domain.Consent){
		"missing subject": func(c *domain.Consent) { c.DataSubjectID = "" },
		"missing purpose": func(c *domain.Consent) { c.Purpose = "" },
		"bad method":      func(c *domain.Consent) { c.Method = "telepathy" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := validConsent()
			mutate(&c)
			_, err := ledger.Register(context.Background(), c)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestWithdraw_MarksConsentAndKeepsFirstDate(t *testing.T) {
	ledger, auditStore := newTestLedger(t, "subj-1")
	registered := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), registered)

	id, err := ledger.Register(ctx, validConsent())
	require.NoError(t, err)

	withdrawnAt := registered.Add(48 * time.Hour)
	ctx = requestcontext.WithTime(context.Background(), withdrawnAt)
	require.NoError(t, ledger.Withdraw(ctx, id))

	got, err := ledger.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.Withdrawn)
	require.NotNil(t, got.WithdrawalDate)
	assert.Equal(t, withdrawnAt, *got.WithdrawalDate)

	// A second withdrawal must not move the recorded date.
	err = ledger.Withdraw(requestcontext.WithTime(context.Background(), withdrawnAt.Add(time.Hour)), id)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))

	got, err = ledger.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, withdrawnAt, *got.WithdrawalDate)

	events, err := auditStore.Query(ctx, audit.Filter{SubjectID: "subj-1"})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.ActionWithdrawConsent, events[0].Action)
}

func TestWithdraw_UnknownConsentReturnsNotFound(t *testing.T) {
	ledger, _ := newTestLedger(t, "subj-1")
	err := ledger.Withdraw(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestFindValid_PurposeMustMatchExactly(t *testing.T) {
	ledger, _ := newTestLedger(t, "subj-1")
	ctx := context.Background()

	id, err := ledger.Register(ctx, validConsent())
	require.NoError(t, err)

	got, err := ledger.FindValid(ctx, "subj-1", "marketing")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)

	got, err = ledger.FindValid(ctx, "subj-1", "Marketing")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ledger.FindValid(ctx, "subj-1", "analytics")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindValid_IgnoresWithdrawnAndRefusedConsents(t *testing.T) {
	ledger, _ := newTestLedger(t, "subj-1")
	ctx := context.Background()

	refused := validConsent()
	refused.Given = false
	_, err := ledger.Register(ctx, refused)
	require.NoError(t, err)

	id, err := ledger.Register(ctx, validConsent())
	require.NoError(t, err)
	require.NoError(t, ledger.Withdraw(ctx, id))

	got, err := ledger.FindValid(ctx, "subj-1", "marketing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteBySubject_RemovesAllConsentsSilently(t *testing.T) {
	ledger, auditStore := newTestLedger(t, "subj-1")
	ctx := context.Background()

	_, err := ledger.Register(ctx, validConsent())
	require.NoError(t, err)
	second := validConsent()
	second.Purpose = "analytics"
	_, err = ledger.Register(ctx, second)
	require.NoError(t, err)

	before, err := auditStore.Query(ctx, audit.Filter{})
	require.NoError(t, err)

	removed, err := ledger.DeleteBySubject(ctx, "subj-1")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	remaining, err := ledger.FindBySubject(ctx, "subj-1")
	require.NoError(t, err)
	assert.Empty(t, remaining)

	after, err := auditStore.Query(ctx, audit.Filter{})
	require.NoError(t, err)
	assert.Len(t, after, len(before))
}
