package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cuemarkapp/cuemark-server/internal/domain"
	domainerrors "github.com/cuemarkapp/cuemark-server/internal/errors"
	"github.com/cuemarkapp/cuemark-server/internal/id"
	"github.com/cuemarkapp/cuemark-server/internal/logger"
	"github.com/cuemarkapp/cuemark-server/internal/search"
	"github.com/cuemarkapp/cuemark-server/internal/store"
	"github.com/cuemarkapp/cuemark-server/internal/validation"
)

// BookService manages the book registry and exposes cue availability.
type BookService struct {
	store     *store.Store
	index     *search.Index
	validator *validation.Validator
	logger    *logger.Logger
}

// NewBookService creates a book service.
func NewBookService(s *store.Store, index *search.Index, v *validation.Validator, log *logger.Logger) *BookService {
	return &BookService{store: s, index: index, validator: v, logger: log}
}

// RegisterBookRequest registers a book with its file layout. Books come from
// the operator or an upstream library tool, not from scanning.
type RegisterBookRequest struct {
	Title    string  `json:"title" validate:"required,min=1,max=500"`
	Author   string  `json:"author,omitempty" validate:"max=500"`
	Narrator string  `json:"narrator,omitempty" validate:"max=500"`
	ASIN     string  `json:"asin,omitempty" validate:"omitempty,len=10,alphanum"`
	Path     string  `json:"path" validate:"required"`
	Duration float64 `json:"duration" validate:"required,gt=0"`

	AudioFiles []RegisterAudioFile `json:"audio_files,omitempty" validate:"dive"`
}

// RegisterAudioFile is one file of the registered book.
type RegisterAudioFile struct {
	Path        string  `json:"path" validate:"required"`
	Duration    float64 `json:"duration" validate:"gte=0"`
	StartOffset float64 `json:"start_offset" validate:"gte=0"`
}

// BookSummary is a book plus its editing status for list views.
type BookSummary struct {
	domain.Book
	HasCues      bool `json:"has_cues"`
	CueCount     int  `json:"cue_count"`
	ChapterCount int  `json:"chapter_count"`
}

// Register adds a book to the registry and indexes it for search.
func (s *BookService) Register(ctx context.Context, req RegisterBookRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	bookID, err := id.Generate("book")
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}

	now := time.Now()
	book := &domain.Book{
		ID:        bookID,
		Title:     req.Title,
		Author:    req.Author,
		Narrator:  req.Narrator,
		ASIN:      req.ASIN,
		Path:      req.Path,
		Duration:  req.Duration,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, af := range req.AudioFiles {
		fileID, err := id.Generate("file")
		if err != nil {
			return nil, fmt.Errorf("generate file ID: %w", err)
		}
		book.AudioFiles = append(book.AudioFiles, domain.AudioFile{
			ID:          fileID,
			Path:        af.Path,
			Filename:    filepath.Base(af.Path),
			Duration:    af.Duration,
			StartOffset: af.StartOffset,
		})
	}

	if err := s.store.Books.Create(ctx, book.ID, book); err != nil {
		return nil, fmt.Errorf("store book: %w", err)
	}

	if err := s.index.IndexBook(search.FromBook(book)); err != nil {
		s.logger.WithError(err).Warn("Failed to index book", "book_id", book.ID)
	}

	s.logger.Info("Book registered", "book_id", book.ID, "title", book.Title)
	return book, nil
}

// Get loads one book.
func (s *BookService) Get(ctx context.Context, bookID string) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		if store.ErrNotFound.Is(err) {
			return nil, domainerrors.NotFound("book not found")
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

// List returns all books with their editing status.
func (s *BookService) List(ctx context.Context) ([]BookSummary, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	out := make([]BookSummary, 0, len(books))
	for _, book := range books {
		summary := BookSummary{
			Book:         *book,
			ChapterCount: len(book.Chapters),
		}
		if cs, err := s.store.GetCueSet(ctx, book.ID); err == nil {
			summary.HasCues = true
			summary.CueCount = len(cs.Cues)
		}
		out = append(out, summary)
	}
	return out, nil
}

// Cues returns the analyzer output for a book. Returns a NOT_READY error
// while analysis hasn't landed yet, so clients can distinguish "pending"
// from "no such book".
func (s *BookService) Cues(ctx context.Context, bookID string) (*domain.CueSet, error) {
	if _, err := s.Get(ctx, bookID); err != nil {
		return nil, err
	}

	cs, err := s.store.GetCueSet(ctx, bookID)
	if err != nil {
		if store.ErrNotFound.Is(err) {
			return nil, domainerrors.NotReady("cue analysis not available for this book yet")
		}
		return nil, fmt.Errorf("get cue set: %w", err)
	}
	return cs, nil
}

// Delete removes a book, its cue set, sources, and search entry.
func (s *BookService) Delete(ctx context.Context, bookID string) error {
	if _, err := s.Get(ctx, bookID); err != nil {
		return err
	}

	if err := s.store.Books.Delete(ctx, bookID); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if err := s.store.CueSets.Delete(ctx, bookID); err != nil && !store.ErrNotFound.Is(err) {
		s.logger.WithError(err).Warn("Failed to delete cue set", "book_id", bookID)
	}

	srcs, err := s.store.SourcesForBook(ctx, bookID)
	if err == nil {
		for _, src := range srcs {
			if err := s.store.Sources.Delete(ctx, src.ID); err != nil {
				s.logger.WithError(err).Warn("Failed to delete source", "source_id", src.ID)
			}
		}
	}

	if err := s.index.DeleteBook(bookID); err != nil {
		s.logger.WithError(err).Warn("Failed to deindex book", "book_id", bookID)
	}

	s.logger.Info("Book deleted", "book_id", bookID)
	return nil
}

// UpdateChapters persists a confirmed chapter list and refreshes the search
// document. Called by the draft service on confirm.
func (s *BookService) UpdateChapters(ctx context.Context, book *domain.Book, chapters []domain.Chapter) error {
	book.Chapters = chapters
	book.Touch()
	if err := s.store.Books.Put(ctx, book.ID, book); err != nil {
		return fmt.Errorf("store book: %w", err)
	}
	if err := s.index.IndexBook(search.FromBook(book)); err != nil {
		s.logger.WithError(err).Warn("Failed to reindex book", "book_id", book.ID)
	}
	return nil
}
