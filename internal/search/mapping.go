package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for library documents.
//
// Priorities:
//  1. Full-text search over the extracted text with English stemming
//  2. Boosted matches on the document name
//  3. Exact device filtering so libraries stay isolated
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// Name - primary search target, stored for result rendering.
	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = en.AnalyzerName
	nameFieldMapping.Store = true
	nameFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)

	// Extracted text - searchable but not stored (too large).
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = en.AnalyzerName
	textFieldMapping.Store = false
	textFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("text", textFieldMapping)

	// Bookmark snippets - searchable.
	bookmarksFieldMapping := bleve.NewTextFieldMapping()
	bookmarksFieldMapping.Analyzer = en.AnalyzerName
	bookmarksFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("bookmarks", bookmarksFieldMapping)

	// Device - exact match filter, never analyzed.
	deviceFieldMapping := bleve.NewTextFieldMapping()
	deviceFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("device_id", deviceFieldMapping)

	// Document ID - stored for result mapping back to the library.
	docIDFieldMapping := bleve.NewTextFieldMapping()
	docIDFieldMapping.Analyzer = keyword.Name
	docIDFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("document_id", docIDFieldMapping)

	// Numeric fields for sorting.
	pagesFieldMapping := bleve.NewNumericFieldMapping()
	pagesFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("pages", pagesFieldMapping)

	addedAtFieldMapping := bleve.NewNumericFieldMapping()
	addedAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("added_at", addedAtFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
