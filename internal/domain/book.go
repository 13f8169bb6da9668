// Package domain defines the core types of the read-along engine.
package domain

// Book is a fully loaded read-along book: manifest metadata plus the merged
// timing and text maps for every chapter.
type Book struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	TotalDuration float64   `json:"total_duration"` // seconds
	Chapters      []Chapter `json:"chapters"`
}

// Chapter pairs one narrated audio file with its per-sentence timing map and
// the parallel paragraph/sentence text map.
type Chapter struct {
	Index    int    `json:"index"`
	ID       string `json:"id"` // e.g. "ch01"
	Title    string `json:"title"`
	AudioRef string `json:"audio_ref"` // relative path, e.g. "audio/ch01.wav"
	Duration float64 `json:"duration"` // seconds

	// Entries are ordered by start time ascending. Contiguity is assumed by
	// the conversion pipeline but never required here.
	Entries    []TimingEntry `json:"entries"`
	Paragraphs []Paragraph   `json:"paragraphs"`
}

// TimingEntry is one sentence's [start,end) audio-time window.
// Its ID is shared with the Sentence it narrates.
type TimingEntry struct {
	ID        string  `json:"id"`
	Start     float64 `json:"start"` // seconds
	End       float64 `json:"end"`   // seconds
	Text      string  `json:"text"`  // informational copy of the sentence
	Paragraph int     `json:"paragraph"`
}

// Paragraph is an ordered run of sentences sharing one text block.
type Paragraph struct {
	ID        string     `json:"id"` // e.g. "ch01_p003"
	Sentences []Sentence `json:"sentences"`
}

// Sentence is the minimal addressable unit of book text. Its ID joins it to
// a TimingEntry.
type Sentence struct {
	ID   string `json:"id"` // e.g. "ch01_s0042"
	Text string `json:"text"`
}

// ChapterCount returns the number of chapters in the book.
func (b *Book) ChapterCount() int {
	return len(b.Chapters)
}

// ChapterAt returns the chapter at index, or nil when out of bounds.
func (b *Book) ChapterAt(index int) *Chapter {
	if index < 0 || index >= len(b.Chapters) {
		return nil
	}
	return &b.Chapters[index]
}

// SentenceText returns the text of the sentence with the given id, searching
// the chapter's text map first and falling back to the timing entry copy.
func (c *Chapter) SentenceText(sentenceID string) string {
	for i := range c.Paragraphs {
		for _, s := range c.Paragraphs[i].Sentences {
			if s.ID == sentenceID {
				return s.Text
			}
		}
	}
	for _, e := range c.Entries {
		if e.ID == sentenceID {
			return e.Text
		}
	}
	return ""
}

// HasSentence reports whether a timing entry with the given id exists.
func (c *Chapter) HasSentence(sentenceID string) bool {
	for _, e := range c.Entries {
		if e.ID == sentenceID {
			return true
		}
	}
	return false
}
