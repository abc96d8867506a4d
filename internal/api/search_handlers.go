package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cuemarkapp/cuemark-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search the library",
		Description: "Full-text search over registered books",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearch)
}

// === DTOs ===

// SearchInput contains parameters for searching the library.
type SearchInput struct {
	Query           string `query:"q" required:"true" minLength:"1" maxLength:"200" doc:"Search query"`
	WithoutChapters bool   `query:"without_chapters" doc:"Only books with no confirmed chapters yet"`
	Limit           int    `query:"limit" validate:"omitempty,gte=1,lte=100" doc:"Max results (default 20)"`
	Offset          int    `query:"offset" validate:"omitempty,gte=0" doc:"Pagination offset"`
	Sort            string `query:"sort" validate:"omitempty,oneof=relevance title author recent" doc:"Sort order (default relevance)"`
}

// SearchHitResult contains a single search result.
type SearchHitResult struct {
	ID          string            `json:"id" doc:"Book ID"`
	Score       float64           `json:"score" doc:"Search relevance score"`
	Title       string            `json:"title" doc:"Book title"`
	Author      string            `json:"author,omitempty" doc:"Author name"`
	Narrator    string            `json:"narrator,omitempty" doc:"Narrator name"`
	ASIN        string            `json:"asin,omitempty" doc:"Audible catalog ID"`
	Duration    float64           `json:"duration,omitempty" doc:"Duration in seconds"`
	HasChapters bool              `json:"has_chapters" doc:"Whether the book has confirmed chapters"`
	Highlights  map[string]string `json:"highlights,omitempty" doc:"Highlighted matches"`
}

// SearchResponse contains search results.
type SearchResponse struct {
	Query  string            `json:"query" doc:"Original search query"`
	Total  uint64            `json:"total" doc:"Total matches"`
	TookMs int64             `json:"took_ms" doc:"Search duration in milliseconds"`
	Hits   []SearchHitResult `json:"hits" doc:"Search results"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	params := search.DefaultParams()
	params.Query = input.Query
	params.OnlyWithoutChapters = input.WithoutChapters
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	params.Offset = input.Offset
	if input.Sort != "" && input.Sort != "relevance" {
		params.SortBy = input.Sort
	}

	result, err := s.services.Search.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHitResult, 0, len(result.Hits))
	for _, h := range result.Hits {
		hits = append(hits, SearchHitResult{
			ID:          h.ID,
			Score:       h.Score,
			Title:       h.Title,
			Author:      h.Author,
			Narrator:    h.Narrator,
			ASIN:        h.ASIN,
			Duration:    h.Duration,
			HasChapters: h.HasChapters,
			Highlights:  h.Highlights,
		})
	}

	return &SearchOutput{
		Body: SearchResponse{
			Query:  result.Query,
			Total:  result.Total,
			TookMs: result.TookMs,
			Hits:   hits,
		},
	}, nil
}
