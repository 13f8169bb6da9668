package domain

import "time"

// HighlightColor is one of the fixed highlight palette values.
type HighlightColor string

// The fixed highlight palette. Anything else is rejected at creation time.
const (
	ColorYellow HighlightColor = "yellow"
	ColorGreen  HighlightColor = "green"
	ColorBlue   HighlightColor = "blue"
	ColorPink   HighlightColor = "pink"
	ColorOrange HighlightColor = "orange"
)

// ValidColor reports whether c belongs to the palette.
func ValidColor(c HighlightColor) bool {
	switch c {
	case ColorYellow, ColorGreen, ColorBlue, ColorPink, ColorOrange:
		return true
	}
	return false
}

// Bookmark marks a playback position within a chapter.
// Text is a snapshot of the sentence being narrated at creation time.
type Bookmark struct {
	ID           string    `json:"id"`
	BookID       string    `json:"book_id"`
	Chapter      int       `json:"chapter"`
	Time         float64   `json:"time"` // seconds into the chapter
	ChapterTitle string    `json:"chapter_title"`
	Text         string    `json:"text"`
	Note         string    `json:"note,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Note attaches free-form user text to a sentence.
type Note struct {
	ID           string    `json:"id"`
	BookID       string    `json:"book_id"`
	Chapter      int       `json:"chapter"`
	SentenceID   string    `json:"sentence_id"`
	SelectedText string    `json:"selected_text"`
	Note         string    `json:"note"`
	CreatedAt    time.Time `json:"created_at"`
}

// Highlight colors a sentence persistently.
type Highlight struct {
	ID         string         `json:"id"`
	BookID     string         `json:"book_id"`
	Chapter    int            `json:"chapter"`
	SentenceID string         `json:"sentence_id"`
	Text       string         `json:"text"`
	Color      HighlightColor `json:"color"`
	CreatedAt  time.Time      `json:"created_at"`
}

// BookData is the consolidated annotation document for one book.
// All three annotation kinds persist together and the whole document is
// rewritten atomically on every mutation.
type BookData struct {
	BookID     string      `json:"book_id"`
	Bookmarks  []Bookmark  `json:"bookmarks"`
	Notes      []Note      `json:"notes"`
	Highlights []Highlight `json:"highlights"`
}

// NewBookData creates an empty annotation document for a book.
func NewBookData(bookID string) *BookData {
	return &BookData{
		BookID:     bookID,
		Bookmarks:  []Bookmark{},
		Notes:      []Note{},
		Highlights: []Highlight{},
	}
}

// Count returns the total number of annotation records of all kinds.
func (d *BookData) Count() int {
	return len(d.Bookmarks) + len(d.Notes) + len(d.Highlights)
}
