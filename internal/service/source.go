package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cuemarkapp/cuemark-server/internal/domain"
	domainerrors "github.com/cuemarkapp/cuemark-server/internal/errors"
	"github.com/cuemarkapp/cuemark-server/internal/logger"
	"github.com/cuemarkapp/cuemark-server/internal/sources"
	"github.com/cuemarkapp/cuemark-server/internal/store"
)

// SourceService gathers and caches chapter sources for books. Collection is
// lazy: sources are fetched on first request and kept in the store until a
// refresh is asked for.
type SourceService struct {
	store       *store.Store
	catalog     *sources.CatalogClient
	absImporter *sources.ABSImporter // nil when no backup is configured
	logger      *logger.Logger
}

// NewSourceService creates a source service. absBackupPath may be empty.
func NewSourceService(s *store.Store, catalog *sources.CatalogClient, absBackupPath string, log *logger.Logger) *SourceService {
	svc := &SourceService{store: s, catalog: catalog, logger: log}
	if absBackupPath != "" {
		svc.absImporter = sources.NewABSImporter(absBackupPath)
	}
	return svc
}

// ForBook returns the book's chapter sources, collecting them on first use.
// refresh discards the cache and collects again.
func (s *SourceService) ForBook(ctx context.Context, book *domain.Book, refresh bool) ([]*domain.ChapterSource, error) {
	cached, err := s.store.SourcesForBook(ctx, book.ID)
	if err != nil {
		return nil, fmt.Errorf("load cached sources: %w", err)
	}

	if len(cached) > 0 && !refresh {
		return cached, nil
	}

	for _, src := range cached {
		if err := s.store.Sources.Delete(ctx, src.ID); err != nil {
			s.logger.WithError(err).Warn("Failed to drop stale source", "source_id", src.ID)
		}
	}

	collected := s.collect(ctx, book)
	for _, src := range collected {
		if err := s.store.Sources.Create(ctx, src.ID, src); err != nil {
			return nil, fmt.Errorf("store source: %w", err)
		}
	}
	return collected, nil
}

// ImportABSRow imports chapters from one explicitly chosen backup row,
// bypassing the metadata matching ChaptersFor does. Any previously imported
// backup source for the book is replaced.
func (s *SourceService) ImportABSRow(ctx context.Context, book *domain.Book, rowID string) (*domain.ChapterSource, error) {
	if s.absImporter == nil {
		return nil, domainerrors.Validation("no audiobookshelf backup configured")
	}

	src, err := s.absImporter.ChaptersByRowID(book, rowID)
	switch {
	case errors.Is(err, sources.ErrInvalidRowID):
		return nil, domainerrors.Validationf("invalid backup row ID %q", rowID)
	case errors.Is(err, sources.ErrNotFound):
		return nil, domainerrors.NotFoundf("no backup row %q", rowID)
	case err != nil:
		return nil, fmt.Errorf("import backup row: %w", err)
	}

	cached, err := s.store.SourcesForBook(ctx, book.ID)
	if err != nil {
		return nil, fmt.Errorf("load cached sources: %w", err)
	}
	for _, old := range cached {
		if old.Kind != domain.SourceABSImport {
			continue
		}
		if err := s.store.Sources.Delete(ctx, old.ID); err != nil {
			s.logger.WithError(err).Warn("Failed to drop stale source", "source_id", old.ID)
		}
	}

	if err := s.store.Sources.Create(ctx, src.ID, src); err != nil {
		return nil, fmt.Errorf("store source: %w", err)
	}

	s.logger.Info("Imported backup chapter source", "book_id", book.ID, "row_id", rowID)
	return src, nil
}

// collect runs every collector that applies to the book. A collector having
// nothing to offer is normal and only logged at debug level.
func (s *SourceService) collect(ctx context.Context, book *domain.Book) []*domain.ChapterSource {
	var out []*domain.ChapterSource

	if src, err := sources.Embedded(ctx, book); err == nil {
		out = append(out, src)
	} else if !errors.Is(err, sources.ErrNoChapters) {
		s.logger.WithError(err).Debug("Embedded source unavailable", "book_id", book.ID)
	}

	if src, err := sources.FileBoundaries(book); err == nil {
		out = append(out, src)
	}

	if s.catalog.Enabled() && book.ASIN != "" {
		if src, err := s.catalog.Chapters(ctx, book); err == nil {
			out = append(out, src)
		} else {
			s.logger.WithError(err).Debug("Catalog source unavailable", "book_id", book.ID)
		}
	}

	if s.absImporter != nil {
		if src, err := s.absImporter.ChaptersFor(book); err == nil {
			out = append(out, src)
		} else if !errors.Is(err, sources.ErrNotFound) {
			s.logger.WithError(err).Debug("ABS source unavailable", "book_id", book.ID)
		}
	}

	s.logger.Info("Collected chapter sources", "book_id", book.ID, "count", len(out))
	return out
}
