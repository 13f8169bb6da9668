package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/readalongapp/readalong-engine/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := errors.Media("mp3 and wav both failed")
	assert.True(t, errors.Is(err, errors.ErrMedia))
	assert.False(t, errors.Is(err, errors.ErrInput))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := errors.Wrap(cause, errors.CodePersistence, "write annotations")

	assert.True(t, errors.Is(err, errors.ErrPersistence))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "disk full")
}

func TestWithMessageKeepsCode(t *testing.T) {
	err := errors.ErrNotFound.WithMessage("progress record not found")

	var engineErr *errors.Error
	require.True(t, errors.As(err, &engineErr))
	assert.Equal(t, errors.CodeNotFound, engineErr.Code)
	assert.Equal(t, "progress record not found", engineErr.Message)
}

func TestFatalOnlyForInput(t *testing.T) {
	assert.True(t, errors.CodeInput.Fatal())
	assert.False(t, errors.CodeMedia.Fatal())
	assert.False(t, errors.CodePersistence.Fatal())
	assert.False(t, errors.CodeValidation.Fatal())
}
