// Package highlight derives per-sentence visual state and auto-scroll
// decisions from the current sentence index.
package highlight

// SentenceState is the visual state of one sentence.
type SentenceState int

// Sentence states, in reading order.
const (
	Unplayed SentenceState = iota
	Active
	Played
)

// String returns the render-facing name of the state.
func (s SentenceState) String() string {
	switch s {
	case Active:
		return "active"
	case Played:
		return "played"
	default:
		return "unplayed"
	}
}

// Recompute returns the full per-sentence state slice for a chapter with
// count sentences and the given current index. The slice is rebuilt from
// scratch on every index change so seeks and chapter reloads always agree
// with playback position.
func Recompute(count, currentIndex int) []SentenceState {
	states := make([]SentenceState, count)
	for i := range states {
		switch {
		case currentIndex >= 0 && i < currentIndex:
			states[i] = Played
		case i == currentIndex:
			states[i] = Active
		default:
			states[i] = Unplayed
		}
	}
	return states
}

// Machine tracks the active sentence for one chapter and rebuilds the
// state slice whenever it moves.
type Machine struct {
	count   int
	current int
	states  []SentenceState
}

// NewMachine returns a machine for a chapter with count sentences, with no
// sentence active yet.
func NewMachine(count int) *Machine {
	return &Machine{
		count:   count,
		current: -1,
		states:  Recompute(count, -1),
	}
}

// Advance moves the active sentence to index and reports whether anything
// changed. Index -1 means no sentence is active (position in a gap before
// the first entry).
func (m *Machine) Advance(index int) bool {
	if index == m.current {
		return false
	}
	m.current = index
	m.states = Recompute(m.count, index)
	return true
}

// Current returns the active sentence index, or -1.
func (m *Machine) Current() int { return m.current }

// States returns the current state slice. Callers must not mutate it.
func (m *Machine) States() []SentenceState { return m.states }

// Viewport describes the rendering adapter's current geometry in its own
// units. The engine never touches presentation; the adapter reports where
// the active element sits and receives scroll targets back.
type Viewport struct {
	Height     float64 // total viewport height
	ElementTop float64 // active element's top edge, relative to the viewport
}

// safeMargin is the band at the top and bottom of the viewport outside of
// which the active sentence triggers a scroll, in adapter units.
const safeMargin = 100

// ScrollRequest asks the adapter to bring the active element to Target
// (an offset from the top of the content, adapter units).
type ScrollRequest struct {
	SentenceIndex int
	Target        float64
}

// ScrollDecision computes whether the active sentence needs a scroll.
// A scroll is requested only while playback is active and the auto-scroll
// preference is enabled, and only when the element has left the safe band.
// The target places the element roughly one-third of the viewport height
// from the top.
func ScrollDecision(vp Viewport, elementOffset float64, index int, playing, autoScroll bool) (ScrollRequest, bool) {
	if !playing || !autoScroll || index < 0 {
		return ScrollRequest{}, false
	}

	inBand := vp.ElementTop >= safeMargin && vp.ElementTop <= vp.Height-safeMargin
	if inBand {
		return ScrollRequest{}, false
	}

	target := elementOffset - vp.Height/3
	if target < 0 {
		target = 0
	}
	return ScrollRequest{SentenceIndex: index, Target: target}, true
}
