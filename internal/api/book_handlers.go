package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cuemarkapp/cuemark-server/internal/cue"
	"github.com/cuemarkapp/cuemark-server/internal/domain"
	"github.com/cuemarkapp/cuemark-server/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "registerBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/books",
		Summary:     "Register a book",
		Description: "Adds a book with its file layout to the registry",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRegisterBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns all books with their editing status",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get a book",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}",
		Summary:     "Delete a book",
		Description: "Removes a book with its cue set, sources, and search entry",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBookCues",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/cues",
		Summary:     "Get a book's cue set",
		Description: "Returns the silence analyzer's output for a book",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetBookCues)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBookSources",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/sources",
		Summary:     "Get a book's chapter sources",
		Description: "Returns the cached comparison sources, collecting them on first use",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetBookSources)
}

// === DTOs ===

// RegisterBookInput wraps the registration request for Huma.
type RegisterBookInput struct {
	Body service.RegisterBookRequest
}

// BookOutput wraps a single book for Huma.
type BookOutput struct {
	Body domain.Book
}

// BookListResponse contains the book list with editing status.
type BookListResponse struct {
	Books []service.BookSummary `json:"books" doc:"All registered books"`
	Total int                   `json:"total" doc:"Number of books"`
}

// BookListOutput wraps the book list for Huma.
type BookListOutput struct {
	Body BookListResponse
}

// BookIDInput is the path parameter for book routes.
type BookIDInput struct {
	ID string `path:"id" maxLength:"100" doc:"Book ID"`
}

// CueSetResponse contains a book's silence analysis.
type CueSetResponse struct {
	BookID     string    `json:"book_id" doc:"Book ID"`
	Duration   float64   `json:"duration" doc:"Book length in seconds"`
	Cues       []cue.Cue `json:"cues" doc:"Silence-gap cues, ascending by timestamp"`
	AnalyzedAt time.Time `json:"analyzed_at" doc:"When the analysis landed"`
}

// CueSetOutput wraps the cue set for Huma.
type CueSetOutput struct {
	Body CueSetResponse
}

// SourcesInput is the input for the sources route.
type SourcesInput struct {
	ID      string `path:"id" maxLength:"100" doc:"Book ID"`
	Refresh bool   `query:"refresh" doc:"Discard cached sources and collect again"`
	ABSRow  string `query:"abs_row" maxLength:"100" doc:"Audiobookshelf backup row ID to import explicitly, when metadata matching picked the wrong row"`
}

// SourceListResponse contains a book's chapter sources.
type SourceListResponse struct {
	Sources []*domain.ChapterSource `json:"sources" doc:"Comparison chapter sources"`
}

// SourceListOutput wraps the source list for Huma.
type SourceListOutput struct {
	Body SourceListResponse
}

// === Handlers ===

func (s *Server) handleRegisterBook(ctx context.Context, input *RegisterBookInput) (*BookOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	book, err := s.services.Book.Register(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: *book}, nil
}

func (s *Server) handleListBooks(ctx context.Context, _ *struct{}) (*BookListOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	books, err := s.services.Book.List(ctx)
	if err != nil {
		return nil, err
	}
	return &BookListOutput{Body: BookListResponse{Books: books, Total: len(books)}}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	book, err := s.services.Book.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: *book}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *BookIDInput) (*MessageOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	if err := s.services.Book.Delete(ctx, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Book deleted"}}, nil
}

func (s *Server) handleGetBookCues(ctx context.Context, input *BookIDInput) (*CueSetOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	cs, err := s.services.Book.Cues(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &CueSetOutput{
		Body: CueSetResponse{
			BookID:     cs.BookID,
			Duration:   cs.Duration,
			Cues:       cs.Cues,
			AnalyzedAt: cs.AnalyzedAt,
		},
	}, nil
}

func (s *Server) handleGetBookSources(ctx context.Context, input *SourcesInput) (*SourceListOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	book, err := s.services.Book.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	srcs, err := s.services.Source.ForBook(ctx, book, input.Refresh)
	if err != nil {
		return nil, err
	}

	// An explicit row pick runs after collection so a refresh cannot drop
	// the imported source again.
	if input.ABSRow != "" {
		if _, err := s.services.Source.ImportABSRow(ctx, book, input.ABSRow); err != nil {
			return nil, err
		}
		srcs, err = s.services.Source.ForBook(ctx, book, false)
		if err != nil {
			return nil, err
		}
	}
	return &SourceListOutput{Body: SourceListResponse{Sources: srcs}}, nil
}
