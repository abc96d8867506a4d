package sources

import (
	"archive/zip"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemarkapp/cuemark-server/internal/domain"
)

const stoneSkyRowID = "9e0f3f6a-64c2-4f6b-9a2a-0c37c4a1b11d"

const stoneSkyChapters = `[
	{"id": 0, "start": 0, "end": 22, "title": "Opening Credits"},
	{"id": 1, "start": 22, "end": 1822, "title": "Chapter 1"},
	{"id": 2, "start": 1822, "end": 3572, "title": "Chapter 2"}
]`

type absTestRow struct {
	id       string
	asin     string
	title    string
	chapters string
}

// writeABSBackup builds a minimal .audiobookshelf file: a ZIP holding an
// absdatabase.sqlite with the given book rows.
func writeABSBackup(t *testing.T, rows []absTestRow) string {
	t.Helper()
	dir := t.TempDir()

	dbPath := filepath.Join(dir, "absdatabase.sqlite")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE books (id TEXT PRIMARY KEY, asin TEXT, title TEXT, chapters TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	for _, r := range rows {
		if _, err := db.Exec(`INSERT INTO books (id, asin, title, chapters) VALUES (?, ?, ?, ?)`,
			r.id, r.asin, r.title, r.chapters); err != nil {
			t.Fatalf("insert row: %v", err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close sqlite: %v", err)
	}

	backupPath := filepath.Join(dir, "backup.audiobookshelf")
	f, err := os.Create(backupPath)
	if err != nil {
		t.Fatalf("create backup: %v", err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("absdatabase.sqlite")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	data, err := os.ReadFile(dbPath)
	if err != nil {
		t.Fatalf("read sqlite: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close backup: %v", err)
	}
	return backupPath
}

func stoneSkyBackup(t *testing.T) string {
	t.Helper()
	return writeABSBackup(t, []absTestRow{
		{id: stoneSkyRowID, asin: "B06XKXYZS5", title: "The Stone Sky", chapters: stoneSkyChapters},
	})
}

func assertStoneSkySource(t *testing.T, src *domain.ChapterSource) {
	t.Helper()
	if src.Kind != domain.SourceABSImport {
		t.Errorf("kind = %q, want %q", src.Kind, domain.SourceABSImport)
	}
	want := []float64{0, 22, 1822}
	got := src.Timestamps()
	if len(got) != len(want) {
		t.Fatalf("timestamps = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("timestamp[%d] = %f, want %f", i, got[i], want[i])
		}
	}
	if src.Cues[0].Title != "Opening Credits" {
		t.Errorf("anchor title = %q, want %q", src.Cues[0].Title, "Opening Credits")
	}
	if src.Cues[1].Title != "Chapter 1" {
		t.Errorf("cue title = %q, want %q", src.Cues[1].Title, "Chapter 1")
	}
}

func TestABSImportMatchesASIN(t *testing.T) {
	imp := NewABSImporter(stoneSkyBackup(t))

	src, err := imp.ChaptersFor(&domain.Book{ID: "bk_1", Title: "Wrong Title", ASIN: "B06XKXYZS5"})
	if err != nil {
		t.Fatalf("ChaptersFor() error: %v", err)
	}
	assertStoneSkySource(t, src)
}

func TestABSImportFallsBackToTitle(t *testing.T) {
	imp := NewABSImporter(stoneSkyBackup(t))

	// ASIN misses, title matches case-insensitively.
	src, err := imp.ChaptersFor(&domain.Book{ID: "bk_1", Title: "the stone sky", ASIN: "B000000000"})
	if err != nil {
		t.Fatalf("ChaptersFor() error: %v", err)
	}
	assertStoneSkySource(t, src)
}

func TestABSImportNotFound(t *testing.T) {
	imp := NewABSImporter(stoneSkyBackup(t))

	_, err := imp.ChaptersFor(&domain.Book{ID: "bk_1", Title: "The Obelisk Gate"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestABSImportEmptyChapters(t *testing.T) {
	path := writeABSBackup(t, []absTestRow{
		{id: stoneSkyRowID, title: "Silent Book", chapters: "[]"},
	})
	imp := NewABSImporter(path)

	_, err := imp.ChaptersFor(&domain.Book{ID: "bk_1", Title: "Silent Book"})
	if !errors.Is(err, ErrNoChapters) {
		t.Errorf("error = %v, want ErrNoChapters", err)
	}
}

func TestABSImportBadChaptersJSON(t *testing.T) {
	path := writeABSBackup(t, []absTestRow{
		{id: stoneSkyRowID, title: "Mangled", chapters: "{not json"},
	})
	imp := NewABSImporter(path)

	_, err := imp.ChaptersFor(&domain.Book{ID: "bk_1", Title: "Mangled"})
	if err == nil {
		t.Fatal("expected parse error")
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNoChapters) {
		t.Errorf("parse failure misreported as %v", err)
	}
}

func TestABSImportNotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.audiobookshelf")
	if err := os.WriteFile(path, []byte("not a zip archive"), 0o644); err != nil {
		t.Fatal(err)
	}
	imp := NewABSImporter(path)

	_, err := imp.ChaptersFor(&domain.Book{ID: "bk_1", Title: "Anything"})
	if !errors.Is(err, ErrNotABSBackup) {
		t.Errorf("error = %v, want ErrNotABSBackup", err)
	}
}

func TestABSImportMissingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.audiobookshelf")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	if _, err := zw.Create("readme.txt"); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	imp := NewABSImporter(path)

	_, err = imp.ChaptersFor(&domain.Book{ID: "bk_1", Title: "Anything"})
	if !errors.Is(err, ErrNotABSBackup) {
		t.Errorf("error = %v, want ErrNotABSBackup", err)
	}
}

func TestABSImportByRowID(t *testing.T) {
	imp := NewABSImporter(stoneSkyBackup(t))
	book := &domain.Book{ID: "bk_1", Title: "Some Other Title"}

	src, err := imp.ChaptersByRowID(book, stoneSkyRowID)
	if err != nil {
		t.Fatalf("ChaptersByRowID() error: %v", err)
	}
	assertStoneSkySource(t, src)

	if _, err := imp.ChaptersByRowID(book, "11111111-2222-3333-4444-555555555555"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown row error = %v, want ErrNotFound", err)
	}
}

func TestABSImportByRowIDRejectsMalformedID(t *testing.T) {
	// Validation happens before the backup is touched, so no backup file
	// needs to exist.
	imp := NewABSImporter(filepath.Join(t.TempDir(), "missing.audiobookshelf"))

	_, err := imp.ChaptersByRowID(&domain.Book{ID: "bk_1"}, "not-a-uuid")
	if !errors.Is(err, ErrInvalidRowID) {
		t.Errorf("error = %v, want ErrInvalidRowID", err)
	}
}
