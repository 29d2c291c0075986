package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errSample = New(KindValidation, "SAMPLE", "sample failed")

func TestError_Is(t *testing.T) {
	t.Run("SameCodeMatches", func(t *testing.T) {
		err := errSample.WithMessage("sample failed for %d", 42)
		assert.True(t, errors.Is(err, errSample))
		assert.Equal(t, "sample failed for 42", err.Error())
	})

	t.Run("WrappedByFmt", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", errSample)
		assert.True(t, errors.Is(err, errSample))
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("DifferentCode", func(t *testing.T) {
		other := New(KindValidation, "OTHER", "other")
		assert.False(t, errors.Is(other, errSample))
	})
}

func TestError_Wrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := errSample.Wrap(cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "connection reset")
	assert.Nil(t, errSample.Err, "sentinel must not be mutated")
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, KindNotFound, KindOf(New(KindNotFound, "X", "x")))

	e, ok := As(fmt.Errorf("ctx: %w", New(KindConflict, "C", "c")))
	assert.True(t, ok)
	assert.Equal(t, "C", e.Code)
	assert.Equal(t, "conflict", e.Kind.String())
	assert.Equal(t, "forbidden", KindForbidden.String())
	assert.Equal(t, "internal", Kind(99).String())
}
