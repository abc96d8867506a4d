package domain

import "time"

// SourceKind identifies where a chapter source came from.
type SourceKind string

const (
	// SourceEmbedded is chapter metadata read out of the audio file itself.
	SourceEmbedded SourceKind = "embedded"
	// SourceCatalog is a chapter set fetched from an external catalog API.
	SourceCatalog SourceKind = "catalog"
	// SourceABSImport is a chapter set read from an Audiobookshelf backup.
	SourceABSImport SourceKind = "abs_import"
	// SourceFileBounds is the book's own file boundaries.
	SourceFileBounds SourceKind = "file_bounds"
)

// ChapterSource is a chapter set obtained from somewhere other than the cue
// engine, used as a comparison baseline during editing. The first cue is the
// fixed book-start anchor at t=0.
type ChapterSource struct {
	ID        string      `json:"id"`
	BookID    string      `json:"book_id"`
	Kind      SourceKind  `json:"kind"`
	Name      string      `json:"name"`
	ShortName string      `json:"short_name"`
	Cues      []SourceCue `json:"cues"`
	FetchedAt time.Time   `json:"fetched_at"`
}

// SourceCue is one chapter mark inside a ChapterSource.
type SourceCue struct {
	Timestamp float64 `json:"timestamp"`
	Title     string  `json:"title,omitempty"`
}

// Timestamps flattens the source's cues for the alignment matcher.
func (s *ChapterSource) Timestamps() []float64 {
	out := make([]float64, len(s.Cues))
	for i, c := range s.Cues {
		out[i] = c.Timestamp
	}
	return out
}

// ChapterCount is the number of timestamps including the anchor, the
// convention the preselector's target math expects.
func (s *ChapterSource) ChapterCount() int {
	return len(s.Cues)
}
