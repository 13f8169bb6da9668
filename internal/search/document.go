// Package search provides full-text search over the book library using
// Bleve. It answers catalog queries (title, author, narration voice) with
// fuzzy matching and faceted filtering; searching inside a single open
// book's text is the textsearch package's job.
package search

import (
	"github.com/readalongapp/readalong-engine/internal/book"
)

// Document is the index representation of one generated book. The fields
// come straight from the book's manifest, so reindexing never needs the
// timing or text artifacts.
type Document struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	Voice         string  `json:"voice,omitempty"` // narration voice the pipeline used
	ChapterCount  int     `json:"chapter_count"`
	SentenceCount int     `json:"sentence_count"`
	Duration      float64 `json:"duration"` // seconds
	Path          string  `json:"path"`     // library directory holding the artifacts
	IndexedAt     int64   `json:"indexed_at"`
}

// ToMap converts the document to a map with lowercase field names matching
// the index mapping. Bleve would otherwise index under the capitalized Go
// field names.
func (d *Document) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":             d.ID,
		"title":          d.Title,
		"author":         d.Author,
		"chapter_count":  d.ChapterCount,
		"sentence_count": d.SentenceCount,
		"duration":       d.Duration,
		"path":           d.Path,
		"indexed_at":     d.IndexedAt,
	}
	if d.Voice != "" {
		m["voice"] = d.Voice
	}
	return m
}

// FromManifest builds an index document from a book manifest. path is the
// library directory the manifest was read from, indexedAt the scan time in
// Unix millis.
func FromManifest(m *book.Manifest, path string, indexedAt int64) *Document {
	sentences := 0
	for _, ch := range m.Chapters {
		sentences += ch.SentenceCount
	}
	voice := ""
	if m.Generated != nil {
		voice = m.Generated.Voice
	}
	return &Document{
		ID:            m.BookID,
		Title:         m.Title,
		Author:        m.Author,
		Voice:         voice,
		ChapterCount:  m.ChapterCount,
		SentenceCount: sentences,
		Duration:      m.TotalDuration,
		Path:          path,
		IndexedAt:     indexedAt,
	}
}
