package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/listenupapp/bookrec/internal/errors"
	"github.com/listenupapp/bookrec/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search books",
		Description: "Full-text search over titles, authors and descriptions",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// === DTOs ===

// SearchInput contains parameters for lexical search.
type SearchInput struct {
	Query    string `query:"q" validate:"required,min=1,max=200" doc:"Search query"`
	Category string `query:"category" validate:"omitempty,max=100" doc:"Exact simple category"`
	MinYear  int    `query:"min_year" validate:"omitempty,gte=0" doc:"Earliest publication year"`
	MaxYear  int    `query:"max_year" validate:"omitempty,gte=0" doc:"Latest publication year"`
	Limit    int    `query:"limit" validate:"omitempty,gte=1,lte=100" doc:"Max results (default 20)"`
	Offset   int    `query:"offset" validate:"omitempty,gte=0" doc:"Pagination offset"`
	Facets   bool   `query:"facets" doc:"Include category facets"`
}

// SearchOutput wraps the search result for Huma.
type SearchOutput struct {
	Body *search.SearchResult
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	if s.services.Search == nil {
		return nil, domainerrors.Configurationf("search is not configured")
	}
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	params := search.DefaultSearchParams()
	params.Query = input.Query
	params.Category = input.Category
	params.MinYear = input.MinYear
	params.MaxYear = input.MaxYear
	params.Offset = input.Offset
	params.IncludeFacets = input.Facets
	if input.Limit > 0 {
		params.Limit = input.Limit
	}

	s.logger.Debug("Search request received", "query", input.Query, "limit", params.Limit)

	result, err := s.services.Search.Search(ctx, params)
	if err != nil {
		s.logger.Error("Search failed", "error", err, "query", input.Query)
		return nil, err
	}
	return &SearchOutput{Body: result}, nil
}
