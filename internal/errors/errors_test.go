package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIs(t *testing.T) {
	err := Conflict("document /authors/A1 was modified")
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("badger: disk full")
	err := Wrap(cause, CodeUnavailable, "save failed")

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}

func TestWithDetails(t *testing.T) {
	err := ErrConflict.WithDetails([]string{"/works/W1", "/works/W2"})

	var domainErr *Error
	require.True(t, As(err, &domainErr))
	assert.Equal(t, CodeConflict, domainErr.Code)
	assert.Equal(t, []string{"/works/W1", "/works/W2"}, domainErr.Details)
}

func TestMergeTargetCode(t *testing.T) {
	err := InvalidMergeTargetf("master %s is a redirect", "/authors/A9")
	assert.ErrorIs(t, err, ErrInvalidMergeTarget)
	assert.Contains(t, err.Error(), "/authors/A9")
}
