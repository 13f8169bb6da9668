package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readalongapp/readalong-engine/internal/errors"
	"github.com/readalongapp/readalong-engine/internal/validation"
)

type testManifest struct {
	BookID       string  `json:"bookId" validate:"required"`
	Title        string  `json:"title" validate:"required"`
	ChapterCount int     `json:"chapterCount" validate:"gt=0"`
	Duration     float64 `json:"totalDuration" validate:"gte=0"`
}

func TestValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(testManifest{
		BookID:       "moby-dick",
		Title:        "Moby Dick",
		ChapterCount: 3,
		Duration:     5400,
	})
	assert.NoError(t, err)
}

func TestValidateReturnsFieldDetails(t *testing.T) {
	v := validation.New()

	err := v.Validate(testManifest{Duration: -1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	var engineErr *errors.Error
	require.True(t, errors.As(err, &engineErr))
	// Field names come from the JSON tags, not the Go struct fields.
	assert.Equal(t, "is required", engineErr.Details["bookId"])
	assert.Equal(t, "is required", engineErr.Details["title"])
	assert.Equal(t, "must be greater than 0", engineErr.Details["chapterCount"])
	assert.Equal(t, "must be greater than or equal to 0", engineErr.Details["totalDuration"])
}
