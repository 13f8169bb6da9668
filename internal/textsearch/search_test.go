package textsearch

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readalongapp/readalong-engine/internal/domain"
)

func searchBook() *domain.Book {
	return &domain.Book{
		ID:    "moby-dick",
		Title: "Moby Dick",
		Chapters: []domain.Chapter{
			{
				Index: 0,
				Title: "Loomings",
				Paragraphs: []domain.Paragraph{
					{ID: "ch01_p000", Sentences: []domain.Sentence{
						{ID: "ch01_s0000", Text: "Call me Ishmael."},
						{ID: "ch01_s0001", Text: "Some years ago, never mind how long."},
					}},
				},
			},
			{
				Index: 1,
				Title: "The Carpet-Bag",
				Paragraphs: []domain.Paragraph{
					{ID: "ch02_p000", Sentences: []domain.Sentence{
						{ID: "ch02_s0000", Text: "Ishmael stuffed a shirt or two into his bag."},
					}},
				},
			},
		},
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	res := Search(searchBook(), "ISHMAEL")
	require.Equal(t, 2, res.Total)
	require.Len(t, res.Matches, 2)

	first := res.Matches[0]
	assert.Equal(t, 0, first.Chapter)
	assert.Equal(t, "Loomings", first.ChapterTitle)
	assert.Equal(t, "ch01_s0000", first.SentenceID)
	assert.Equal(t, "Call me Ishmael.", first.Text)
	assert.Equal(t, "ISHMAEL", first.Query)

	assert.Equal(t, 1, res.Matches[1].Chapter)
}

func TestSearchNoMatch(t *testing.T) {
	res := Search(searchBook(), "whale")
	assert.Zero(t, res.Total)
	assert.Empty(t, res.Matches)
}

func TestSearchEmptyQuery(t *testing.T) {
	assert.Empty(t, Search(searchBook(), "").Matches)
	assert.Empty(t, Search(searchBook(), "   ").Matches)
}

func TestSearchDiacriticsFolded(t *testing.T) {
	book := &domain.Book{Chapters: []domain.Chapter{{
		Paragraphs: []domain.Paragraph{{ID: "p", Sentences: []domain.Sentence{
			{ID: "s1", Text: "They met at the café."},
		}}},
	}}}

	res := Search(book, "Cafe")
	require.Equal(t, 1, res.Total)
	assert.Equal(t, "s1", res.Matches[0].SentenceID)
}

func TestSearchCapReportsTrueTotal(t *testing.T) {
	sentences := make([]domain.Sentence, 120)
	for i := range sentences {
		sentences[i] = domain.Sentence{
			ID:   fmt.Sprintf("ch01_s%04d", i),
			Text: "The whale surfaced again.",
		}
	}
	book := &domain.Book{Chapters: []domain.Chapter{{
		Paragraphs: []domain.Paragraph{{ID: "ch01_p000", Sentences: sentences}},
	}}}

	res := Search(book, "whale")
	assert.Equal(t, 120, res.Total)
	assert.Len(t, res.Matches, MaxResults)
}
