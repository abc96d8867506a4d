package search

import "github.com/cuemarkapp/cuemark-server/internal/domain"

// Document is the indexed representation of a book.
type Document struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author,omitempty"`
	Narrator string `json:"narrator,omitempty"`
	ASIN     string `json:"asin,omitempty"`

	// Duration in seconds, for range filters.
	Duration float64 `json:"duration,omitempty"`

	// HasChapters marks books with a confirmed chapter list, so the client
	// can filter for books still needing work.
	HasChapters bool `json:"has_chapters"`

	UpdatedAt int64 `json:"updated_at"` // Unix millis
}

// ToMap converts the document to a map with lowercase field names matching
// the index mapping. Bleve would otherwise index Go's capitalized field
// names.
func (d *Document) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":           d.ID,
		"title":        d.Title,
		"has_chapters": d.HasChapters,
		"updated_at":   d.UpdatedAt,
	}
	if d.Author != "" {
		m["author"] = d.Author
	}
	if d.Narrator != "" {
		m["narrator"] = d.Narrator
	}
	if d.ASIN != "" {
		m["asin"] = d.ASIN
	}
	if d.Duration > 0 {
		m["duration"] = d.Duration
	}
	return m
}

// FromBook converts a domain Book into its search document.
func FromBook(book *domain.Book) *Document {
	return &Document{
		ID:          book.ID,
		Title:       book.Title,
		Author:      book.Author,
		Narrator:    book.Narrator,
		ASIN:        book.ASIN,
		Duration:    book.Duration,
		HasChapters: len(book.Chapters) > 0,
		UpdatedAt:   book.UpdatedAt.UnixMilli(),
	}
}
