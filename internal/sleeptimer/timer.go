// Package sleeptimer implements the playback sleep timer. The timer never
// runs its own goroutine; the playback engine feeds it one-second ticks and
// acts on the returned signal, which keeps expiry synchronous with the rest
// of the tick pipeline.
package sleeptimer

import "time"

// Mode is the timer's current mode.
type Mode int

const (
	// Idle means no timer is set.
	Idle Mode = iota
	// CountingDown means a duration timer is running.
	CountingDown
	// EndOfChapter means playback stops when the current chapter ends.
	EndOfChapter
)

func (m Mode) String() string {
	switch m {
	case CountingDown:
		return "counting_down"
	case EndOfChapter:
		return "end_of_chapter"
	default:
		return "idle"
	}
}

// Timer is the sleep-timer state machine. Not safe for concurrent use; the
// engine serializes all calls on its tick path.
type Timer struct {
	mode      Mode
	remaining time.Duration
}

// New returns an idle timer.
func New() *Timer {
	return &Timer{mode: Idle}
}

// Mode returns the current mode.
func (t *Timer) Mode() Mode { return t.mode }

// Remaining returns the time left on a countdown, zero otherwise.
func (t *Timer) Remaining() time.Duration {
	if t.mode != CountingDown {
		return 0
	}
	return t.remaining
}

// SetDuration starts a countdown for d, replacing whatever was set before.
// Non-positive durations cancel instead.
func (t *Timer) SetDuration(d time.Duration) {
	if d <= 0 {
		t.Cancel()
		return
	}
	t.mode = CountingDown
	t.remaining = d
}

// SetEndOfChapter latches the timer to the end of the current chapter,
// replacing whatever was set before.
func (t *Timer) SetEndOfChapter() {
	t.mode = EndOfChapter
	t.remaining = 0
}

// Cancel returns the timer to idle from any state.
func (t *Timer) Cancel() {
	t.mode = Idle
	t.remaining = 0
}

// Tick advances a countdown by one second and reports whether the timer
// expired on this tick. Expiry returns the timer to idle, so a timer fires
// at most once per SetDuration. Ticks in any other mode are no-ops.
func (t *Timer) Tick() (expired bool) {
	if t.mode != CountingDown {
		return false
	}
	t.remaining -= time.Second
	if t.remaining > 0 {
		return false
	}
	t.Cancel()
	return true
}

// ChapterEnded tells the timer the current chapter finished. If the
// end-of-chapter latch was set it is consumed and true is returned, meaning
// playback must stop instead of auto-advancing.
func (t *Timer) ChapterEnded() (stop bool) {
	if t.mode != EndOfChapter {
		return false
	}
	t.Cancel()
	return true
}
