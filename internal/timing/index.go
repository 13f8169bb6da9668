// Package timing maps playback timestamps to sentence indexes within a chapter.
package timing

import "github.com/readalongapp/readalong-engine/internal/domain"

// Locate returns the index in entries of the sentence considered current at
// time t, or -1 if none applies yet.
//
// Entries are ordered by start ascending. The lookup policy, preserved from
// the original reader:
//
//   - t inside [start, end) of entry i  -> i
//   - t in a gap before entry i         -> i-1 (the previous sentence stays
//     current), or -1 before the first entry
//   - t at or past the last entry start -> last index, covering trailing
//     silence after the final sentence's nominal end
func Locate(entries []domain.TimingEntry, t float64) int {
	for i := range entries {
		if t >= entries[i].Start && t < entries[i].End {
			return i
		}
		if t < entries[i].Start {
			return i - 1
		}
	}

	if n := len(entries); n > 0 && t >= entries[n-1].Start {
		return n - 1
	}
	return -1
}

// Index is the per-chapter lookup structure, rebuilt on every chapter load
// and discarded on the next.
type Index struct {
	entries []domain.TimingEntry
	byID    map[string]int
}

// NewIndex builds an index over a chapter's timing entries.
func NewIndex(entries []domain.TimingEntry) *Index {
	byID := make(map[string]int, len(entries))
	for i, e := range entries {
		byID[e.ID] = i
	}
	return &Index{entries: entries, byID: byID}
}

// Locate returns the current sentence index for time t.
func (ix *Index) Locate(t float64) int {
	return Locate(ix.entries, t)
}

// EntryAt returns the entry at position i, or nil when out of bounds.
func (ix *Index) EntryAt(i int) *domain.TimingEntry {
	if i < 0 || i >= len(ix.entries) {
		return nil
	}
	return &ix.entries[i]
}

// Position returns the position of the entry with the given sentence id,
// or -1 when the id is unknown.
func (ix *Index) Position(sentenceID string) int {
	if i, ok := ix.byID[sentenceID]; ok {
		return i
	}
	return -1
}

// StartOf returns the start time of the sentence with the given id.
// The second return value is false when the id is unknown.
func (ix *Index) StartOf(sentenceID string) (float64, bool) {
	i, ok := ix.byID[sentenceID]
	if !ok {
		return 0, false
	}
	return ix.entries[i].Start, true
}

// Len returns the number of entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}
