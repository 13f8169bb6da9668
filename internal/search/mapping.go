package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for library documents.
//
// Title and author get English analysis with term vectors so hits can be
// highlighted; voice and path are exact keywords; durations and counts are
// numeric for range filtering and sorting.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = en.AnalyzerName
	titleField.Store = true
	titleField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("title", titleField)

	authorField := bleve.NewTextFieldMapping()
	authorField.Analyzer = en.AnalyzerName
	authorField.Store = true
	authorField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("author", authorField)

	idField := bleve.NewTextFieldMapping()
	idField.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idField)

	voiceField := bleve.NewTextFieldMapping()
	voiceField.Analyzer = keyword.Name
	voiceField.Store = true
	docMapping.AddFieldMappingsAt("voice", voiceField)

	pathField := bleve.NewTextFieldMapping()
	pathField.Analyzer = keyword.Name
	pathField.Store = true
	pathField.Index = false
	docMapping.AddFieldMappingsAt("path", pathField)

	durationField := bleve.NewNumericFieldMapping()
	durationField.Store = true
	docMapping.AddFieldMappingsAt("duration", durationField)

	chapterCountField := bleve.NewNumericFieldMapping()
	chapterCountField.Store = true
	docMapping.AddFieldMappingsAt("chapter_count", chapterCountField)

	sentenceCountField := bleve.NewNumericFieldMapping()
	sentenceCountField.Store = true
	docMapping.AddFieldMappingsAt("sentence_count", sentenceCountField)

	indexedAtField := bleve.NewNumericFieldMapping()
	indexedAtField.Store = true
	docMapping.AddFieldMappingsAt("indexed_at", indexedAtField)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
