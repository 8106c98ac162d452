package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pagevoiceapp/pagevoice-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchLibrary",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search the library",
		Description: "Full-text search over the device's documents and bookmarked passages",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// SearchInput contains the search query parameters.
type SearchInput struct {
	Query  string `query:"q" doc:"Search query; empty lists the whole library"`
	Limit  int    `query:"limit" minimum:"1" maximum:"100" default:"20"`
	Offset int    `query:"offset" minimum:"0" default:"0"`
}

// SearchOutput wraps the search results for Huma.
type SearchOutput struct {
	Body search.Result
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	if s.searchIndex == nil {
		return nil, huma.Error501NotImplemented("Search is not available on this server")
	}

	params := search.DefaultParams(deviceID(ctx), input.Query)
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	params.Offset = input.Offset

	result, err := s.searchIndex.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: *result}, nil
}
