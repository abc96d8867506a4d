package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for book documents: English
// stemming on title/author/narrator, exact matching on ASIN, numeric range
// support for duration.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = true
	titleFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	authorFieldMapping := bleve.NewTextFieldMapping()
	authorFieldMapping.Analyzer = en.AnalyzerName
	authorFieldMapping.Store = true
	authorFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("author", authorFieldMapping)

	narratorFieldMapping := bleve.NewTextFieldMapping()
	narratorFieldMapping.Analyzer = en.AnalyzerName
	narratorFieldMapping.Store = true
	narratorFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("narrator", narratorFieldMapping)

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	asinFieldMapping := bleve.NewTextFieldMapping()
	asinFieldMapping.Analyzer = keyword.Name
	asinFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("asin", asinFieldMapping)

	hasChaptersFieldMapping := bleve.NewBooleanFieldMapping()
	hasChaptersFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("has_chapters", hasChaptersFieldMapping)

	durationFieldMapping := bleve.NewNumericFieldMapping()
	durationFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("duration", durationFieldMapping)

	updatedAtFieldMapping := bleve.NewNumericFieldMapping()
	updatedAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("updated_at", updatedAtFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
