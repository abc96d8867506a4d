// Package store persists CueMark's domain entities in a Badger database.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/cuemarkapp/cuemark-server/internal/domain"
)

// Key prefixes. Every entity type gets its own namespace.
const (
	prefixUser     = "user:"
	prefixSession  = "session:"
	prefixBook     = "book:"
	prefixCueSet   = "cueset:"
	prefixSource   = "source:"
	prefixDraft    = "draft:"
	prefixInstance = "instance:"
)

// instanceID is the singleton key for the server's own identity record.
const instanceID = "self"

// Store wraps a Badger database with typed entity accessors.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	Users     *Entity[domain.User]
	Sessions  *Entity[domain.Session]
	Books     *Entity[domain.Book]
	CueSets   *Entity[domain.CueSet]
	Sources   *Entity[domain.ChapterSource]
	Drafts    *Entity[domain.ChapterDraft]
	Instances *Entity[domain.Instance]
}

// New opens (or creates) the database at path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil      // Badger's own logging is noisy
	opts.SyncWrites = true // survive crashes without replaying chapters

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{db: db, logger: logger}

	s.Users = NewEntity[domain.User](s, prefixUser).
		WithUniqueIndex("email", func(u *domain.User) string {
			return strings.ToLower(u.Email)
		})
	s.Sessions = NewEntity[domain.Session](s, prefixSession)
	s.Books = NewEntity[domain.Book](s, prefixBook)
	s.CueSets = NewEntity[domain.CueSet](s, prefixCueSet)
	s.Sources = NewEntity[domain.ChapterSource](s, prefixSource)
	s.Drafts = NewEntity[domain.ChapterDraft](s, prefixDraft)
	s.Instances = NewEntity[domain.Instance](s, prefixInstance)

	if logger != nil {
		logger.Info("Database opened", "path", path)
	}

	return s, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetUserByEmail looks a user up through the email index.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.Users.GetByIndex(ctx, strings.ToLower(email))
}

// GetBook loads one book.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	book, err := s.Books.Get(ctx, id)
	if err != nil {
		if ErrNotFound.Is(err) {
			return nil, ErrNotFound.WithMessage("book not found")
		}
		return nil, err
	}
	return book, nil
}

// ListBooks returns all books.
func (s *Store) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	var out []*domain.Book
	for book, err := range s.Books.List(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, book)
	}
	return out, nil
}

// GetCueSet loads the analyzer output for a book. ErrNotFound means the
// analyzer has not delivered results yet.
func (s *Store) GetCueSet(ctx context.Context, bookID string) (*domain.CueSet, error) {
	return s.CueSets.Get(ctx, bookID)
}

// PutCueSet stores (or replaces) a book's analyzer output.
func (s *Store) PutCueSet(ctx context.Context, cs *domain.CueSet) error {
	return s.CueSets.Put(ctx, cs.BookID, cs)
}

// SourcesForBook returns every chapter source recorded for a book.
func (s *Store) SourcesForBook(ctx context.Context, bookID string) ([]*domain.ChapterSource, error) {
	var out []*domain.ChapterSource
	for src, err := range s.Sources.List(ctx) {
		if err != nil {
			return nil, err
		}
		if src.BookID == bookID {
			out = append(out, src)
		}
	}
	return out, nil
}

// DraftsForUser returns a user's drafts, optionally filtered to one book.
func (s *Store) DraftsForUser(ctx context.Context, userID, bookID string) ([]*domain.ChapterDraft, error) {
	var out []*domain.ChapterDraft
	for d, err := range s.Drafts.List(ctx) {
		if err != nil {
			return nil, err
		}
		if d.UserID != userID {
			continue
		}
		if bookID != "" && d.BookID != bookID {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// GetInstance loads the server identity record, or ErrNotFound on first
// boot.
func (s *Store) GetInstance(ctx context.Context) (*domain.Instance, error) {
	return s.Instances.Get(ctx, instanceID)
}

// PutInstance stores the server identity record.
func (s *Store) PutInstance(ctx context.Context, inst *domain.Instance) error {
	return s.Instances.Put(ctx, instanceID, inst)
}
