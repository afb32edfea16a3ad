//go:build integration

package consent

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
	newConsent := func(id, purpose string, createdAt time.Time) *domain.Consent {
		return &domain.Consent{
			ID:             id,
			DataSubjectID:  "subj-1",
			Purpose:        purpose,
			DataCategories: []string{"contact"},
			Given:          true,
			ConsentDate:    createdAt,
			Method:         domain.ConsentMethodExplicit,
			CreatedAt:      createdAt,
			UpdatedAt:      createdAt,
		}
	}

	t.Run("save and list by subject in creation order", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, newConsent("cons-2", "analytics", now.Add(time.Minute))))
		require.NoError(t, store.Save(ctx, newConsent("cons-1", "marketing", now)))

		consents, err := store.ListBySubject(ctx, "subj-1")
		require.NoError(t, err)
		require.Len(t, consents, 2)
		assert.Equal(t, "cons-1", consents[0].ID)
		assert.Equal(t, "cons-2", consents[1].ID)
	})

	t.Run("upsert records withdrawal", func(t *testing.T) {
		withdrawn := newConsent("cons-1", "marketing", now)
		withdrawnAt := now.Add(2 * time.Minute)
		withdrawn.Withdrawn = true
		withdrawn.WithdrawalDate = &withdrawnAt
		withdrawn.UpdatedAt = withdrawnAt
		require.NoError(t, store.Save(ctx, withdrawn))

		got, err := store.FindByID(ctx, "cons-1")
		require.NoError(t, err)
		assert.True(t, got.Withdrawn)
		require.NotNil(t, got.WithdrawalDate)
		assert.WithinDuration(t, withdrawnAt, *got.WithdrawalDate, time.Millisecond)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := store.FindByID(ctx, "missing")
		assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	})

	t.Run("delete by subject", func(t *testing.T) {
		removed, err := store.DeleteBySubject(ctx, "subj-1")
		require.NoError(t, err)
		assert.Equal(t, 2, removed)

		consents, err := store.ListBySubject(ctx, "subj-1")
		require.NoError(t, err)
		assert.Empty(t, consents)
	})
}
