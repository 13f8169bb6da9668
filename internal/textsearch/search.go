// Package textsearch implements in-book text search. Scans are performed
// fresh per call over the book's text map; at book scale (a few thousand
// sentences) a linear pass completes well within one tick, so no inverted
// index is kept.
package textsearch

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/readalongapp/readalong-engine/internal/domain"
)

// MaxResults caps the returned match list for display. The true match count
// is reported separately.
const MaxResults = 50

// Match is one sentence containing the query.
type Match struct {
	Chapter      int    `json:"chapter"`
	ChapterTitle string `json:"chapter_title"`
	SentenceID   string `json:"sentence_id"`
	Text         string `json:"text"`
	Query        string `json:"query"`
}

// Result is a capped match list plus the true total.
type Result struct {
	Matches []Match `json:"matches"`
	Total   int     `json:"total"`
	Query   string  `json:"query"`
}

// Search scans every sentence of every chapter for the query,
// case-insensitively and with accents folded, and returns the first
// MaxResults matches. An empty or whitespace query returns an empty result.
func Search(book *domain.Book, query string) Result {
	res := Result{Matches: []Match{}, Query: query}

	needle := Fold(strings.TrimSpace(query))
	if needle == "" || book == nil {
		return res
	}

	for ci := range book.Chapters {
		ch := &book.Chapters[ci]
		for pi := range ch.Paragraphs {
			for _, sent := range ch.Paragraphs[pi].Sentences {
				if !strings.Contains(Fold(sent.Text), needle) {
					continue
				}
				res.Total++
				if len(res.Matches) < MaxResults {
					res.Matches = append(res.Matches, Match{
						Chapter:      ci,
						ChapterTitle: ch.Title,
						SentenceID:   sent.ID,
						Text:         sent.Text,
						Query:        query,
					})
				}
			}
		}
	}
	return res
}

// Fold lowercases s and strips diacritics so "café" matches "Cafe".
func Fold(s string) string {
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
	return s
}
