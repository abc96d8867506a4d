package service

import (
	"context"
	"fmt"

	"github.com/cuemarkapp/cuemark-server/internal/logger"
	"github.com/cuemarkapp/cuemark-server/internal/search"
	"github.com/cuemarkapp/cuemark-server/internal/store"
)

// SearchService fronts the bleve index for the API layer.
type SearchService struct {
	store  *store.Store
	index  *search.Index
	logger *logger.Logger
}

// NewSearchService creates a search service.
func NewSearchService(s *store.Store, idx *search.Index, log *logger.Logger) *SearchService {
	return &SearchService{store: s, index: idx, logger: log}
}

// Search runs a query against the book index.
func (s *SearchService) Search(ctx context.Context, params search.Params) (*search.Result, error) {
	return s.index.Search(ctx, params)
}

// RebuildFromStore reindexes every stored book. Called on startup so the
// index catches up with writes it missed while the server was down.
func (s *SearchService) RebuildFromStore(ctx context.Context) error {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}

	docs := make([]*search.Document, 0, len(books))
	for _, book := range books {
		docs = append(docs, search.FromBook(book))
	}
	if err := s.index.IndexBooks(docs); err != nil {
		return fmt.Errorf("index books: %w", err)
	}

	s.logger.Info("Search index rebuilt", "books", len(docs))
	return nil
}
