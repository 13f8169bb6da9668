package id_test

import (
	"strings"
	"testing"

	"github.com/readalongapp/readalong-engine/internal/id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	got, err := id.Generate("bm")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "bm-"))
	assert.Greater(t, len(got), len("bm-"))
}

func TestGenerateUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		got, err := id.Generate("hl")
		require.NoError(t, err)
		assert.False(t, seen[got], "duplicate id %s", got)
		seen[got] = true
	}
}

func TestMustGenerate(t *testing.T) {
	assert.NotPanics(t, func() {
		got := id.MustGenerate("note")
		assert.True(t, strings.HasPrefix(got, "note-"))
	})
}
