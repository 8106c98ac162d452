package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures a search query.
type Params struct {
	DeviceID string // Library to search; required
	Query    string // User's search query

	Limit  int
	Offset int

	Highlight bool
}

// DefaultParams returns sensible defaults.
func DefaultParams(deviceID, q string) Params {
	return Params{
		DeviceID:  deviceID,
		Query:     q,
		Limit:     20,
		Offset:    0,
		Highlight: true,
	}
}

// Result represents search results.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit represents a single matching document.
type Hit struct {
	DocumentID string            `json:"document_id"`
	Name       string            `json:"name"`
	Score      float64           `json:"score"`
	Pages      int               `json:"pages,omitempty"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Search executes a query against the device's indexed documents.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	searchQuery := buildSearchQuery(params)

	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)
	searchRequest.SortBy([]string{"-_score"})
	searchRequest.Fields = []string{"document_id", "name", "pages"}

	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("name")
		searchRequest.Highlight.AddField("text")
	}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		h := Hit{Score: hit.Score}

		if docID, ok := hit.Fields["document_id"].(string); ok {
			h.DocumentID = docID
		}
		if name, ok := hit.Fields["name"].(string); ok {
			h.Name = name
		}
		if pages, ok := hit.Fields["pages"].(float64); ok {
			h.Pages = int(pages)
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

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params. The device term
// is always conjoined so one library never leaks into another's results.
func buildSearchQuery(params Params) query.Query {
	deviceQuery := bleve.NewTermQuery(params.DeviceID)
	deviceQuery.SetField("device_id")

	if params.Query == "" {
		return bleve.NewConjunctionQuery(deviceQuery, bleve.NewMatchAllQuery())
	}

	textQueries := []query.Query{}

	// Name match with highest boost.
	nameMatch := bleve.NewMatchQuery(params.Query)
	nameMatch.SetField("name")
	nameMatch.SetBoost(3.0)
	textQueries = append(textQueries, nameMatch)

	// Body text match.
	textMatch := bleve.NewMatchQuery(params.Query)
	textMatch.SetField("text")
	textQueries = append(textQueries, textMatch)

	// Bookmarked passages.
	bookmarkMatch := bleve.NewMatchQuery(params.Query)
	bookmarkMatch.SetField("bookmarks")
	bookmarkMatch.SetBoost(1.5)
	textQueries = append(textQueries, bookmarkMatch)

	// Fuzzy matching for typo tolerance on the name.
	fuzzyQuery := bleve.NewFuzzyQuery(params.Query)
	fuzzyQuery.SetFuzziness(1)
	fuzzyQuery.SetField("name")
	fuzzyQuery.SetBoost(0.8)
	textQueries = append(textQueries, fuzzyQuery)

	// Prefix query for autocomplete (minimum 2 chars).
	if len(params.Query) >= 2 {
		prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
		prefixQuery.SetField("name")
		prefixQuery.SetBoost(0.5)
		textQueries = append(textQueries, prefixQuery)
	}

	return bleve.NewConjunctionQuery(deviceQuery, bleve.NewDisjunctionQuery(textQueries...))
}
