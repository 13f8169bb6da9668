package sleeptimer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountdownExpiresExactlyOnce(t *testing.T) {
	tm := New()
	tm.SetDuration(5 * time.Minute)
	require.Equal(t, CountingDown, tm.Mode())

	expirations := 0
	for i := 0; i < 600; i++ {
		if tm.Tick() {
			expirations++
		}
	}

	assert.Equal(t, 1, expirations)
	assert.Equal(t, Idle, tm.Mode())
	assert.Equal(t, time.Duration(0), tm.Remaining())
}

func TestCountdownRemaining(t *testing.T) {
	tm := New()
	tm.SetDuration(10 * time.Second)
	for i := 0; i < 3; i++ {
		require.False(t, tm.Tick())
	}
	assert.Equal(t, 7*time.Second, tm.Remaining())
}

func TestSettingReplacesPriorTimer(t *testing.T) {
	tm := New()
	tm.SetDuration(2 * time.Second)
	tm.SetDuration(10 * time.Second)
	require.False(t, tm.Tick())
	require.False(t, tm.Tick())
	// The two-second timer would have expired here; the replacement wins.
	assert.False(t, tm.Tick())
	assert.Equal(t, CountingDown, tm.Mode())

	// Switching to end-of-chapter drops the countdown entirely.
	tm.SetEndOfChapter()
	assert.Equal(t, EndOfChapter, tm.Mode())
	assert.False(t, tm.Tick())
}

func TestEndOfChapterLatch(t *testing.T) {
	tm := New()
	tm.SetEndOfChapter()

	// Ticks do not consume the latch.
	for i := 0; i < 100; i++ {
		require.False(t, tm.Tick())
	}
	require.Equal(t, EndOfChapter, tm.Mode())

	// Chapter end does, exactly once.
	assert.True(t, tm.ChapterEnded())
	assert.Equal(t, Idle, tm.Mode())
	assert.False(t, tm.ChapterEnded())
}

func TestChapterEndWithoutLatch(t *testing.T) {
	tm := New()
	assert.False(t, tm.ChapterEnded())

	tm.SetDuration(time.Minute)
	assert.False(t, tm.ChapterEnded())
	assert.Equal(t, CountingDown, tm.Mode(), "chapter end must not disturb a countdown")
}

func TestCancel(t *testing.T) {
	tm := New()
	tm.SetDuration(time.Minute)
	tm.Cancel()
	assert.Equal(t, Idle, tm.Mode())
	assert.False(t, tm.Tick())

	tm.SetEndOfChapter()
	tm.Cancel()
	assert.False(t, tm.ChapterEnded())
}

func TestNonPositiveDurationCancels(t *testing.T) {
	tm := New()
	tm.SetDuration(time.Minute)
	tm.SetDuration(0)
	assert.Equal(t, Idle, tm.Mode())
}
