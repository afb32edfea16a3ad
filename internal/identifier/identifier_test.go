package identifier

import (
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUID_ProducesParseableUniqueIDs(t *testing.T) {
	g := UUID{}
	seen := make(map[string]bool)
	for range 100 {
		id := g.NewID()
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestULID_SortsByCallOrder(t *testing.T) {
	g := NewULID()
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = g.NewID()
	}
	assert.True(t, sort.StringsAreSorted(ids))
}

func TestSequential_Deterministic(t *testing.T) {
	g := NewSequential("subj")
	assert.Equal(t, "subj-1", g.NewID())
	assert.Equal(t, "subj-2", g.NewID())
}
