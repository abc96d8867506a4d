package domain

import "time"

// ChapterDraft is one user's editing session over a book's cue set. The
// engine itself is stateless; the draft records the knob positions so a
// client can resume where it left off, and nothing else is persisted until
// the user confirms.
type ChapterDraft struct {
	ID     string `json:"id"`
	BookID string `json:"book_id"`
	UserID string `json:"user_id"`

	// Control is the slider position in [0,1].
	Control float64 `json:"control"`
	// Sensitivity is the edge-proximity knob in [-2,2].
	Sensitivity float64 `json:"sensitivity"`

	// Truncated records whether the candidate list was capped when the
	// draft started, so the UI can say so.
	Truncated bool `json:"truncated"`

	// MergeSourceIDs names the sources whose unaligned cues get folded into
	// the final list on confirm.
	MergeSourceIDs []string `json:"merge_source_ids,omitempty"`

	Confirmed   bool       `json:"confirmed"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewChapterDraft creates a draft positioned at the given initial control.
func NewChapterDraft(id, bookID, userID string, control float64, truncated bool) *ChapterDraft {
	now := time.Now()
	return &ChapterDraft{
		ID:        id,
		BookID:    bookID,
		UserID:    userID,
		Control:   control,
		Truncated: truncated,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetKnobs records a control mutation.
func (d *ChapterDraft) SetKnobs(control, sensitivity float64) {
	d.Control = control
	d.Sensitivity = sensitivity
	d.UpdatedAt = time.Now()
}

// MarkConfirmed finalizes the draft.
func (d *ChapterDraft) MarkConfirmed(mergeSourceIDs []string) {
	now := time.Now()
	d.MergeSourceIDs = mergeSourceIDs
	d.Confirmed = true
	d.ConfirmedAt = &now
	d.UpdatedAt = now
}
