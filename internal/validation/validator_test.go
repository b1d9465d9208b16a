package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/shelfmarkapp/shelfmark-server/internal/errors"
)

type mergeRequest struct {
	Master     string   `json:"master"      validate:"required,dockey"`
	Duplicates []string `json:"duplicates"  validate:"required,min=1,dive,required,dockey"`
}

func TestValidateValid(t *testing.T) {
	v := New()
	err := v.Validate(mergeRequest{
		Master:     "/authors/A1",
		Duplicates: []string{"/authors/A2"},
	})
	assert.NoError(t, err)
}

func TestValidateMissingMaster(t *testing.T) {
	v := New()
	err := v.Validate(mergeRequest{Duplicates: []string{"/authors/A2"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	fields, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", fields["master"])
}

func TestValidateBadDocumentKey(t *testing.T) {
	v := New()
	err := v.Validate(mergeRequest{
		Master:     "authors/A1", // missing leading slash
		Duplicates: []string{"/authors/A2"},
	})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	fields := domainErr.Details.(map[string]string)
	assert.Equal(t, "must be a document key starting with /", fields["master"])
}

func TestValidateEmptyDuplicates(t *testing.T) {
	v := New()
	err := v.Validate(mergeRequest{Master: "/authors/A1", Duplicates: []string{}})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}
