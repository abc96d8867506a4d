package domain

import (
	"time"

	"github.com/cuemarkapp/cuemark-server/internal/cue"
)

// CueSet is the analyzer's output for one book: the full candidate cue list
// and the measured duration. It is written once by the ingest pipeline and
// read-only afterwards; editing sessions work from a capped copy.
type CueSet struct {
	BookID     string    `json:"book_id"`
	Duration   float64   `json:"duration"` // seconds
	Cues       []cue.Cue `json:"cues"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// NewCueSet stamps an analyzer result with the receive time.
func NewCueSet(bookID string, duration float64, cues []cue.Cue) *CueSet {
	return &CueSet{
		BookID:     bookID,
		Duration:   duration,
		Cues:       cues,
		AnalyzedAt: time.Now(),
	}
}
