package dErrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode_MatchesThroughWrapChain(t *testing.T) {
	root := errors.New("row not found")
	wrapped := Wrap(root, CodeNotFound, "subject not found")
	outer := Wrap(wrapped, CodeInternal, "load subject")

	assert.True(t, HasCode(outer, CodeInternal))
	assert.True(t, HasCode(outer, CodeNotFound))
	assert.False(t, HasCode(outer, CodeValidation))
}

func TestHasCode_PlainErrorCarriesNoCode(t *testing.T) {
	err := fmt.Errorf("dial tcp: %w", errors.New("refused"))
	assert.False(t, HasCode(err, CodeInternal))
	assert.Equal(t, CodeInternal, CodeOf(err))
}

func TestWrap_NilPassthrough(t *testing.T) {
	require.NoError(t, Wrap(nil, CodeInternal, "should vanish"))
}

func TestWrap_PreservesCauseForErrorsIs(t *testing.T) {
	root := errors.New("constraint violated")
	err := Wrap(root, CodeConflict, "duplicate consent")
	assert.ErrorIs(t, err, root)
	assert.Equal(t, CodeConflict, CodeOf(err))
}
