package engine

import (
	"github.com/readalongapp/readalong-engine/internal/highlight"
)

// State is the controller's session state for the current chapter.
type State int

// Session states.
const (
	Idle State = iota
	Loading
	Ready
	Playing
	Paused
	Ended
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Ended:
		return "ended"
	default:
		return "idle"
	}
}

// Listener is the rendering adapter port. The controller pushes typed events
// here instead of touching presentation itself. Callbacks run synchronously
// on the tick path, so implementations must return quickly.
type Listener interface {
	// StateChanged fires on every session state transition.
	StateChanged(s State)
	// SentenceChanged fires when the active sentence moves. index is -1
	// when no sentence is active. states holds one entry per sentence of
	// the chapter.
	SentenceChanged(chapter, index int, states []highlight.SentenceState)
	// ScrollRequested asks the adapter to bring the active sentence into
	// its safe band.
	ScrollRequested(req highlight.ScrollRequest)
	// ChapterUnavailable reports that a chapter's audio could not be
	// resolved. The session stays usable for text and annotations.
	ChapterUnavailable(chapter int, err error)
	// BookFinished fires when the last chapter plays to its end.
	BookFinished()
	// ProgressChanged reports the playback position for display.
	ProgressChanged(position, duration float64)
}

// Metrics is implemented by adapters that can report element geometry, in
// their own units. A nil Metrics disables auto-scroll requests.
type Metrics interface {
	// Viewport returns the current viewport, the active element's offset
	// from the top of the content, and whether geometry is known yet.
	Viewport(sentenceIndex int) (vp highlight.Viewport, elementOffset float64, ok bool)
}

// NopListener discards all events. Embed it to implement only part of
// Listener.
type NopListener struct{}

// StateChanged implements Listener.
func (NopListener) StateChanged(State) {}

// SentenceChanged implements Listener.
func (NopListener) SentenceChanged(int, int, []highlight.SentenceState) {}

// ScrollRequested implements Listener.
func (NopListener) ScrollRequested(highlight.ScrollRequest) {}

// ChapterUnavailable implements Listener.
func (NopListener) ChapterUnavailable(int, error) {}

// BookFinished implements Listener.
func (NopListener) BookFinished() {}

// ProgressChanged implements Listener.
func (NopListener) ProgressChanged(float64, float64) {}
