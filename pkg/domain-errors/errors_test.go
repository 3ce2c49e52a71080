package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches wrapped domain error", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", New(CodeConflict, "vote already cast"))
		assert.True(t, HasCode(err, CodeConflict))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("plain error has no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})

	t.Run("keeps cause in chain", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeLedger, "ledger registration failed")
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, CodeLedger, CodeOf(err))
		assert.Equal(t, "ledger registration failed", MessageOf(err))
	})
}

func TestCodeOf_DefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("unclassified")))
	assert.Empty(t, MessageOf(errors.New("unclassified")))
}
