package sources

import (
	"archive/zip"
	"database/sql"
	"encoding/json/v2"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cuemarkapp/cuemark-server/internal/domain"
	"github.com/cuemarkapp/cuemark-server/internal/id"
)

// ErrNotABSBackup means the file isn't a recognizable Audiobookshelf backup.
var ErrNotABSBackup = errors.New("sources: not an audiobookshelf backup")

// absChapter matches the chapter objects Audiobookshelf stores in the books
// table's chapters JSON column. Start and end are seconds.
type absChapter struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Title string  `json:"title"`
}

// ABSImporter reads chapter lists out of an Audiobookshelf backup.
//
// ABS backups are .audiobookshelf files: a ZIP holding absdatabase.sqlite.
// Chapters live in the books table as a JSON column, so the import is a
// matter of extracting the database and matching rows to our books by ASIN
// or title.
type ABSImporter struct {
	path string
}

// NewABSImporter creates an importer for the backup at path.
func NewABSImporter(path string) *ABSImporter {
	return &ABSImporter{path: path}
}

// ChaptersFor finds the backup row matching book (by ASIN first, then exact
// title) and returns its chapters as a ChapterSource.
func (imp *ABSImporter) ChaptersFor(book *domain.Book) (*domain.ChapterSource, error) {
	db, cleanup, err := imp.openDatabase()
	if err != nil {
		return nil, wrapError("absImport", book.ID, err)
	}
	defer cleanup()

	chaptersJSON, err := findBookChapters(db, book)
	if err != nil {
		return nil, wrapError("absImport", book.ID, err)
	}

	return imp.buildSource(book, chaptersJSON)
}

func (imp *ABSImporter) buildSource(book *domain.Book, chaptersJSON string) (*domain.ChapterSource, error) {
	var chapters []absChapter
	if err := json.Unmarshal([]byte(chaptersJSON), &chapters); err != nil {
		return nil, wrapError("absImport", book.ID, fmt.Errorf("parse chapters: %w", err))
	}
	if len(chapters) == 0 {
		return nil, wrapError("absImport", book.ID, ErrNoChapters)
	}

	cues := make([]domain.SourceCue, 0, len(chapters))
	for _, ch := range chapters {
		cues = append(cues, domain.SourceCue{
			Timestamp: ch.Start,
			Title:     ch.Title,
		})
	}

	sourceID, err := id.Generate("src")
	if err != nil {
		return nil, wrapError("absImport", book.ID, err)
	}

	return &domain.ChapterSource{
		ID:        sourceID,
		BookID:    book.ID,
		Kind:      domain.SourceABSImport,
		Name:      "Audiobookshelf import",
		ShortName: "ABS",
		Cues:      withAnchor(cues),
		FetchedAt: time.Now(),
	}, nil
}

// openDatabase extracts absdatabase.sqlite from the backup ZIP to a temp
// file and opens it. The cleanup func closes the handle and removes the
// temp file.
func (imp *ABSImporter) openDatabase() (*sql.DB, func(), error) {
	zr, err := zip.OpenReader(imp.path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: not a valid ZIP archive: %v", ErrNotABSBackup, err)
	}
	defer zr.Close()

	var dbFile *zip.File
	for _, f := range zr.File {
		if f.Name == "absdatabase.sqlite" {
			dbFile = f
			break
		}
	}
	if dbFile == nil {
		return nil, nil, fmt.Errorf("%w: missing absdatabase.sqlite", ErrNotABSBackup)
	}

	tmpFile, err := os.CreateTemp("", "abs-import-*.sqlite")
	if err != nil {
		return nil, nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	rc, err := dbFile.Open()
	if err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return nil, nil, fmt.Errorf("open database in archive: %w", err)
	}

	_, err = io.Copy(tmpFile, rc)
	rc.Close()
	tmpFile.Close()
	if err != nil {
		os.Remove(tmpPath)
		return nil, nil, fmt.Errorf("extract database: %w", err)
	}

	// modernc.org/sqlite is pure Go, no CGO.
	db, err := sql.Open("sqlite", tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	cleanup := func() {
		db.Close()
		os.Remove(tmpPath)
	}
	return db, cleanup, nil
}

// ChaptersByRowID looks a backup book up by its ABS row ID (a UUID) instead
// of metadata matching. Used when the client picked the row explicitly.
func (imp *ABSImporter) ChaptersByRowID(book *domain.Book, rowID string) (*domain.ChapterSource, error) {
	if _, err := uuid.Parse(rowID); err != nil {
		return nil, wrapError("absImport", book.ID, fmt.Errorf("%w: %q: %v", ErrInvalidRowID, rowID, err))
	}

	db, cleanup, err := imp.openDatabase()
	if err != nil {
		return nil, wrapError("absImport", book.ID, err)
	}
	defer cleanup()

	chaptersJSON, err := queryChapters(db,
		`SELECT COALESCE(chapters, '[]') FROM books WHERE id = ? LIMIT 1`, rowID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wrapError("absImport", book.ID, ErrNotFound)
	}
	if err != nil {
		return nil, wrapError("absImport", book.ID, err)
	}

	return imp.buildSource(book, chaptersJSON)
}

func findBookChapters(db *sql.DB, book *domain.Book) (string, error) {
	if book.ASIN != "" {
		chaptersJSON, err := queryChapters(db,
			`SELECT COALESCE(chapters, '[]') FROM books WHERE asin = ? LIMIT 1`,
			book.ASIN)
		if err == nil {
			return chaptersJSON, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
	}

	chaptersJSON, err := queryChapters(db,
		`SELECT COALESCE(chapters, '[]') FROM books WHERE title = ? COLLATE NOCASE LIMIT 1`,
		strings.TrimSpace(book.Title))
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return chaptersJSON, err
}

func queryChapters(db *sql.DB, query string, arg any) (string, error) {
	var chaptersJSON string
	err := db.QueryRow(query, arg).Scan(&chaptersJSON)
	return chaptersJSON, err
}
