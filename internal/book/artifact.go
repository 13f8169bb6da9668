// Package book loads the conversion pipeline's artifacts (manifest, timing
// map, text map) and merges them into a domain.Book. Artifacts are static
// JSON produced out of process; anything missing or malformed is an input
// error, fatal to initialization, with no partial state retained.
package book

// Manifest is the top-level descriptor of one produced book.
type Manifest struct {
	Version       string            `json:"version" validate:"required"`
	BookID        string            `json:"bookId" validate:"required"`
	Title         string            `json:"title" validate:"required"`
	Author        string            `json:"author"`
	Cover         string            `json:"cover"`
	Timing        string            `json:"timing" validate:"required"`
	Text          string            `json:"text" validate:"required"`
	TotalDuration float64           `json:"totalDuration" validate:"gte=0"`
	ChapterCount  int               `json:"chapterCount" validate:"gt=0"`
	Chapters      []ManifestChapter `json:"chapters" validate:"required,dive"`
	Generated     *GeneratedInfo    `json:"generated,omitempty"`
}

// ManifestChapter is one chapter summary inside the manifest.
type ManifestChapter struct {
	ID            string  `json:"id" validate:"required"`
	Title         string  `json:"title"`
	Duration      float64 `json:"duration" validate:"gte=0"`
	SentenceCount int     `json:"sentenceCount" validate:"gte=0"`
}

// GeneratedInfo records how the audio was synthesized. Informational only.
type GeneratedInfo struct {
	Voice string  `json:"voice"`
	Speed float64 `json:"speed"`
}

// TimingFile is the timing-map artifact.
type TimingFile struct {
	Version       string          `json:"version"`
	BookID        string          `json:"bookId"`
	Title         string          `json:"title"`
	Author        string          `json:"author"`
	TotalDuration float64         `json:"totalDuration"`
	Chapters      []TimingChapter `json:"chapters" validate:"required,dive"`
}

// TimingChapter is one chapter's timing map.
type TimingChapter struct {
	ChapterID string        `json:"chapterId" validate:"required"`
	Title     string        `json:"title"`
	AudioFile string        `json:"audioFile" validate:"required"`
	Duration  float64       `json:"duration" validate:"gte=0"`
	Entries   []TimingEntry `json:"entries" validate:"dive"`
}

// TimingEntry is one sentence's audio-time window as serialized.
type TimingEntry struct {
	ID        string  `json:"id" validate:"required"`
	Start     float64 `json:"start" validate:"gte=0"`
	End       float64 `json:"end" validate:"gtfield=Start"`
	Text      string  `json:"text"`
	Paragraph int     `json:"paragraph" validate:"gte=0"`
}

// TextFile is the text-map artifact.
type TextFile struct {
	Chapters []TextChapter `json:"chapters" validate:"required,dive"`
}

// TextChapter is one chapter's paragraph/sentence text.
type TextChapter struct {
	ID         string      `json:"id" validate:"required"`
	Title      string      `json:"title"`
	Paragraphs []Paragraph `json:"paragraphs" validate:"dive"`
}

// Paragraph groups sentences sharing one text block.
type Paragraph struct {
	ID        string     `json:"id" validate:"required"`
	Sentences []Sentence `json:"sentences" validate:"dive"`
}

// Sentence is one addressable unit of text, joined to a TimingEntry by id.
type Sentence struct {
	ID   string `json:"id" validate:"required"`
	Text string `json:"text"`
}
