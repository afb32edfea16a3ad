//go:build integration

package processing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutela/internal/domain"
	"tutela/pkg/platform/sentinel"
	"tutela/pkg/testutil/containers"
)

func TestPostgresStore_Integration(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	store := NewPostgresStore(pg.DB)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	activity := &domain.ProcessingActivity{
		ID:                "proc-1",
		Purpose:           "scoring",
		LegalBasis:        domain.BasisConsent,
		DataCategories:    []string{"financial"},
		DataSubjects:      []string{"subj-1", "subj-2"},
		SecurityMeasures:  []string{domain.MeasureEncryption},
		TransferCountries: []string{},
		ThirdParties:      []string{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	t.Run("save and find", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, activity))

		got, err := store.FindByID(ctx, "proc-1")
		require.NoError(t, err)
		assert.Equal(t, activity.DataSubjects, got.DataSubjects)
		assert.Equal(t, domain.BasisConsent, got.LegalBasis)
	})

	t.Run("list referencing uses jsonb containment", func(t *testing.T) {
		other := *activity
		other.ID = "proc-2"
		other.DataSubjects = []string{"subj-3"}
		other.CreatedAt = now.Add(time.Minute)
		require.NoError(t, store.Save(ctx, &other))

		referencing, err := store.ListReferencing(ctx, "subj-2")
		require.NoError(t, err)
		require.Len(t, referencing, 1)
		assert.Equal(t, "proc-1", referencing[0].ID)

		none, err := store.ListReferencing(ctx, "subj-99")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("upsert replaces subject list", func(t *testing.T) {
		amended := *activity
		amended.DataSubjects = []string{"subj-2"}
		require.NoError(t, store.Save(ctx, &amended))

		referencing, err := store.ListReferencing(ctx, "subj-1")
		require.NoError(t, err)
		assert.Empty(t, referencing)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "proc-1"))
		_, err := store.FindByID(ctx, "proc-1")
		assert.True(t, errors.Is(err, sentinel.ErrNotFound))

		err = store.Delete(ctx, "proc-1")
		assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	})
}
