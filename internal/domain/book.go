// Package domain contains the core business entities for the CueMark chapter
// editing service.
package domain

import "time"

// Book is an audiobook known to the server. CueMark does not scan libraries
// itself; books are registered with their file layout by the operator or an
// upstream library tool, and the external analyzer references them by ID.
type Book struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author,omitempty"`
	Narrator  string    `json:"narrator,omitempty"`
	ASIN      string    `json:"asin,omitempty"`
	Path      string    `json:"path"`
	Duration  float64   `json:"duration"` // seconds
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AudioFiles []AudioFile `json:"audio_files,omitempty"`

	// Chapters is the confirmed chapter list. Empty until a draft has been
	// confirmed or chapters were imported from elsewhere.
	Chapters []Chapter `json:"chapters,omitempty"`
}

// AudioFile is one file of a possibly multi-file audiobook.
type AudioFile struct {
	ID          string  `json:"id"`
	Path        string  `json:"path"`
	Filename    string  `json:"filename"`
	Duration    float64 `json:"duration"`     // seconds
	StartOffset float64 `json:"start_offset"` // seconds from book start
}

// Chapter is a confirmed chapter marker.
type Chapter struct {
	Title     string  `json:"title"`
	StartTime float64 `json:"start_time"` // seconds
}

// PrimaryFile returns the book's first audio file, which carries the embedded
// metadata for single-file books.
func (b *Book) PrimaryFile() *AudioFile {
	if len(b.AudioFiles) == 0 {
		return nil
	}
	return &b.AudioFiles[0]
}

// FileBoundaries returns the start offsets of every audio file after the
// first. For books ripped one-file-per-chapter these are themselves a
// chapter-set candidate.
func (b *Book) FileBoundaries() []float64 {
	if len(b.AudioFiles) < 2 {
		return nil
	}
	out := make([]float64, 0, len(b.AudioFiles)-1)
	for _, f := range b.AudioFiles[1:] {
		out = append(out, f.StartOffset)
	}
	return out
}

// Touch updates the modification timestamp.
func (b *Book) Touch() {
	b.UpdatedAt = time.Now()
}
