// Package sources collects chapter sets from outside the cue engine:
// chapters embedded in the audio files, an external chapter catalog,
// Audiobookshelf backups, and the book's own file boundaries. Sources are
// comparison baselines during editing; every source starts with the fixed
// book-start anchor at t=0.
package sources

import (
	"context"
	"time"

	"github.com/simonhull/audiometa"

	"github.com/cuemarkapp/cuemark-server/internal/domain"
	"github.com/cuemarkapp/cuemark-server/internal/id"
)

// Embedded reads chapter markers out of the book's audio files. For
// multi-file books each file's chapters are shifted by the file's start
// offset so timestamps are book-relative.
func Embedded(ctx context.Context, book *domain.Book) (*domain.ChapterSource, error) {
	if len(book.AudioFiles) == 0 {
		return nil, wrapError("embedded", book.ID, ErrNoChapters)
	}

	var cues []domain.SourceCue
	for i := range book.AudioFiles {
		af := &book.AudioFiles[i]

		fileCues, err := readFileChapters(ctx, af.Path, af.StartOffset)
		if err != nil {
			// A file without parsable metadata shouldn't sink the whole
			// source; skip it.
			continue
		}
		cues = append(cues, fileCues...)
	}

	if len(cues) == 0 {
		return nil, wrapError("embedded", book.ID, ErrNoChapters)
	}

	sourceID, err := id.Generate("src")
	if err != nil {
		return nil, wrapError("embedded", book.ID, err)
	}

	return &domain.ChapterSource{
		ID:        sourceID,
		BookID:    book.ID,
		Kind:      domain.SourceEmbedded,
		Name:      "Embedded chapters",
		ShortName: "Embedded",
		Cues:      withAnchor(cues),
		FetchedAt: time.Now(),
	}, nil
}

func readFileChapters(ctx context.Context, path string, offset float64) ([]domain.SourceCue, error) {
	file, err := audiometa.OpenContext(ctx, path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cues := make([]domain.SourceCue, 0, len(file.Chapters))
	for _, ch := range file.Chapters {
		cues = append(cues, domain.SourceCue{
			Timestamp: offset + ch.StartTime.Seconds(),
			Title:     ch.Title,
		})
	}
	return cues, nil
}

// withAnchor ensures the cue list starts with the t=0 book-start anchor and
// is free of duplicates at zero.
func withAnchor(cues []domain.SourceCue) []domain.SourceCue {
	out := make([]domain.SourceCue, 0, len(cues)+1)
	out = append(out, domain.SourceCue{Timestamp: 0})
	for _, c := range cues {
		if c.Timestamp <= 0 {
			// Keep the title from a real chapter-one marker at zero.
			if c.Title != "" {
				out[0].Title = c.Title
			}
			continue
		}
		out = append(out, c)
	}
	return out
}
