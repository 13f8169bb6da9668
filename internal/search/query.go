package search

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures a catalog query.
type Params struct {
	Query string // user's search text, empty matches everything

	// Filters
	Voice       string  // exact narration voice
	MinDuration float64 // seconds
	MaxDuration float64 // seconds, 0 means unbounded

	// Pagination
	Limit  int
	Offset int

	// Sorting
	SortBy    string // "relevance", "title", "author", "recent", "duration"
	SortOrder string // "asc", "desc"

	IncludeFacets bool
	Highlight     bool
}

// DefaultParams returns sensible defaults for interactive search.
func DefaultParams() Params {
	return Params{
		Limit:         20,
		SortBy:        "relevance",
		SortOrder:     "desc",
		IncludeFacets: true,
		Highlight:     true,
	}
}

// Result is one catalog query's outcome.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
	Facets Facets `json:"facets,omitempty"`
}

// Hit is a single matching book.
type Hit struct {
	ID            string            `json:"id"`
	Score         float64           `json:"score"`
	Title         string            `json:"title"`
	Author        string            `json:"author,omitempty"`
	Voice         string            `json:"voice,omitempty"`
	Duration      float64           `json:"duration,omitempty"`
	ChapterCount  int               `json:"chapter_count,omitempty"`
	SentenceCount int               `json:"sentence_count,omitempty"`
	Path          string            `json:"path,omitempty"`
	Highlights    map[string]string `json:"highlights,omitempty"`
}

// Facets holds facet counts for the result set.
type Facets struct {
	Voices  []FacetCount `json:"voices,omitempty"`
	Authors []FacetCount `json:"authors,omitempty"`
}

// FacetCount is one facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search executes a catalog query.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	searchQuery := buildQuery(params)
	req := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)
	addSorting(req, params)

	if params.IncludeFacets {
		req.AddFacet("voice", bleve.NewFacetRequest("voice", 20))
		req.AddFacet("author", bleve.NewFacetRequest("author", 20))
	}

	if params.Highlight {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("title")
		req.Highlight.AddField("author")
	}

	req.Fields = []string{
		"title", "author", "voice", "duration",
		"chapter_count", "sentence_count", "path",
	}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}

	for _, hit := range res.Hits {
		h := Hit{ID: hit.ID, Score: hit.Score}

		if v, ok := hit.Fields["title"].(string); ok {
			h.Title = v
		}
		if v, ok := hit.Fields["author"].(string); ok {
			h.Author = v
		}
		if v, ok := hit.Fields["voice"].(string); ok {
			h.Voice = v
		}
		if v, ok := hit.Fields["duration"].(float64); ok {
			h.Duration = v
		}
		if v, ok := hit.Fields["chapter_count"].(float64); ok {
			h.ChapterCount = int(v)
		}
		if v, ok := hit.Fields["sentence_count"].(float64); ok {
			h.SentenceCount = int(v)
		}
		if v, ok := hit.Fields["path"].(string); ok {
			h.Path = v
		}

		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, h)
	}

	if params.IncludeFacets {
		result.Facets = extractFacets(res)
	}

	return result, nil
}

// buildQuery constructs the Bleve query from params. Text matches title and
// author, with fuzzy and prefix variants for typo tolerance and
// autocomplete.
func buildQuery(params Params) query.Query {
	var queries []query.Query

	if params.Query != "" {
		textQueries := []query.Query{}

		titleMatch := bleve.NewMatchQuery(params.Query)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)
		textQueries = append(textQueries, titleMatch)

		authorMatch := bleve.NewMatchQuery(params.Query)
		authorMatch.SetField("author")
		authorMatch.SetBoost(1.5)
		textQueries = append(textQueries, authorMatch)

		fuzzy := bleve.NewFuzzyQuery(params.Query)
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("title")
		fuzzy.SetBoost(0.8)
		textQueries = append(textQueries, fuzzy)

		if len(params.Query) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefix.SetField("title")
			prefix.SetBoost(0.5)
			textQueries = append(textQueries, prefix)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if params.Voice != "" {
		vq := bleve.NewTermQuery(params.Voice)
		vq.SetField("voice")
		queries = append(queries, vq)
	}

	if params.MinDuration > 0 || params.MaxDuration > 0 {
		min := params.MinDuration
		max := params.MaxDuration
		if max == 0 {
			max = math.MaxFloat64
		}
		rq := bleve.NewNumericRangeQuery(&min, &max)
		rq.SetField("duration")
		queries = append(queries, rq)
	}

	if len(queries) == 0 {
		return bleve.NewMatchAllQuery()
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}

func addSorting(req *bleve.SearchRequest, params Params) {
	switch params.SortBy {
	case "title":
		if params.SortOrder == "desc" {
			req.SortBy([]string{"-title"})
		} else {
			req.SortBy([]string{"title"})
		}
	case "author":
		if params.SortOrder == "desc" {
			req.SortBy([]string{"-author", "-title"})
		} else {
			req.SortBy([]string{"author", "title"})
		}
	case "recent":
		if params.SortOrder == "asc" {
			req.SortBy([]string{"indexed_at"})
		} else {
			req.SortBy([]string{"-indexed_at"})
		}
	case "duration":
		if params.SortOrder == "asc" {
			req.SortBy([]string{"duration"})
		} else {
			req.SortBy([]string{"-duration"})
		}
	default:
		req.SortBy([]string{"-_score"})
	}
}

func extractFacets(res *bleve.SearchResult) Facets {
	facets := Facets{}

	if voiceFacet, ok := res.Facets["voice"]; ok {
		for _, term := range voiceFacet.Terms.Terms() {
			facets.Voices = append(facets.Voices, FacetCount{
				Value: term.Term,
				Count: term.Count,
			})
		}
	}

	if authorFacet, ok := res.Facets["author"]; ok {
		for _, term := range authorFacet.Terms.Terms() {
			facets.Authors = append(facets.Authors, FacetCount{
				Value: term.Term,
				Count: term.Count,
			})
		}
	}

	return facets
}
