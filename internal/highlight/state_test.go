package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecompute(t *testing.T) {
	t.Run("partitions around the active index", func(t *testing.T) {
		states := Recompute(5, 2)
		require.Len(t, states, 5)
		assert.Equal(t, Played, states[0])
		assert.Equal(t, Played, states[1])
		assert.Equal(t, Active, states[2])
		assert.Equal(t, Unplayed, states[3])
		assert.Equal(t, Unplayed, states[4])
	})

	t.Run("no active sentence leaves everything unplayed", func(t *testing.T) {
		for _, s := range Recompute(4, -1) {
			assert.Equal(t, Unplayed, s)
		}
	})

	t.Run("last sentence active marks all prior played", func(t *testing.T) {
		states := Recompute(3, 2)
		assert.Equal(t, []SentenceState{Played, Played, Active}, states)
	})

	t.Run("backward seek recomputes cleanly", func(t *testing.T) {
		// A seek from sentence 4 back to 1 must not leave stale played
		// states behind.
		states := Recompute(5, 1)
		assert.Equal(t, []SentenceState{Played, Active, Unplayed, Unplayed, Unplayed}, states)
	})
}

func TestMachine(t *testing.T) {
	m := NewMachine(4)
	assert.Equal(t, -1, m.Current())

	require.True(t, m.Advance(0))
	assert.Equal(t, Active, m.States()[0])

	// Same index is a no-op.
	require.False(t, m.Advance(0))

	require.True(t, m.Advance(2))
	assert.Equal(t, []SentenceState{Played, Played, Active, Unplayed}, m.States())

	// Dropping back to -1 (gap) clears everything.
	require.True(t, m.Advance(-1))
	for _, s := range m.States() {
		assert.Equal(t, Unplayed, s)
	}
}

func TestScrollDecision(t *testing.T) {
	vp := Viewport{Height: 600, ElementTop: 550}

	t.Run("outside safe band requests a scroll", func(t *testing.T) {
		req, ok := ScrollDecision(vp, 1200, 7, true, true)
		require.True(t, ok)
		assert.Equal(t, 7, req.SentenceIndex)
		// One third of the viewport above the element.
		assert.InDelta(t, 1000, req.Target, 0.001)
	})

	t.Run("inside safe band stays put", func(t *testing.T) {
		_, ok := ScrollDecision(Viewport{Height: 600, ElementTop: 300}, 1200, 7, true, true)
		assert.False(t, ok)
	})

	t.Run("top edge of band triggers", func(t *testing.T) {
		_, ok := ScrollDecision(Viewport{Height: 600, ElementTop: 50}, 400, 2, true, true)
		assert.True(t, ok)
	})

	t.Run("paused playback never scrolls", func(t *testing.T) {
		_, ok := ScrollDecision(vp, 1200, 7, false, true)
		assert.False(t, ok)
	})

	t.Run("auto-scroll setting gates the request", func(t *testing.T) {
		_, ok := ScrollDecision(vp, 1200, 7, true, false)
		assert.False(t, ok)
	})

	t.Run("target clamps at the top of the content", func(t *testing.T) {
		req, ok := ScrollDecision(Viewport{Height: 600, ElementTop: 10}, 100, 0, true, true)
		require.True(t, ok)
		assert.Equal(t, 0.0, req.Target)
	})
}
