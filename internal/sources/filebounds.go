package sources

import (
	"fmt"
	"time"

	"github.com/cuemarkapp/cuemark-server/internal/domain"
	"github.com/cuemarkapp/cuemark-server/internal/id"
)

// FileBoundaries builds a chapter set from the book's own file layout. For
// books ripped one-file-per-chapter the boundaries are already the chapter
// marks. Returns ErrNoChapters for single-file books.
func FileBoundaries(book *domain.Book) (*domain.ChapterSource, error) {
	bounds := book.FileBoundaries()
	if len(bounds) == 0 {
		return nil, wrapError("fileBounds", book.ID, ErrNoChapters)
	}

	sourceID, err := id.Generate("src")
	if err != nil {
		return nil, wrapError("fileBounds", book.ID, err)
	}

	cues := make([]domain.SourceCue, 0, len(bounds)+1)
	cues = append(cues, domain.SourceCue{Timestamp: 0, Title: "Part 1"})
	for i, ts := range bounds {
		cues = append(cues, domain.SourceCue{
			Timestamp: ts,
			Title:     fmt.Sprintf("Part %d", i+2),
		})
	}

	return &domain.ChapterSource{
		ID:        sourceID,
		BookID:    book.ID,
		Kind:      domain.SourceFileBounds,
		Name:      "File boundaries",
		ShortName: "Files",
		Cues:      cues,
		FetchedAt: time.Now(),
	}, nil
}
