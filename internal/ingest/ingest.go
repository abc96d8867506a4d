// Package ingest watches the analyzer drop directory for cue result files.
//
// The silence analyzer is a separate process. When it finishes a book it
// writes <bookID>.cues.json into the drop directory; this package picks the
// file up, validates it against the known books, and stores the cue set.
package ingest

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cuemarkapp/cuemark-server/internal/cue"
	"github.com/cuemarkapp/cuemark-server/internal/domain"
	"github.com/cuemarkapp/cuemark-server/internal/logger"
	"github.com/cuemarkapp/cuemark-server/internal/store"
)

const cueFileSuffix = ".cues.json"

// resultFile is the wire format the analyzer writes.
type resultFile struct {
	BookID   string    `json:"book_id"`
	Duration float64   `json:"duration"`
	Cues     []cue.Cue `json:"cues"`
}

// Ingestor parses analyzer result files and stores them as cue sets.
type Ingestor struct {
	store  *store.Store
	logger *logger.Logger
}

// NewIngestor creates an ingestor backed by the given store.
func NewIngestor(s *store.Store, log *logger.Logger) *Ingestor {
	return &Ingestor{store: s, logger: log}
}

// Sweep ingests every result file already sitting in dir. Used at startup to
// catch files dropped while the server was down.
func (in *Ingestor) Sweep(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read drop directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), cueFileSuffix) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := in.IngestFile(ctx, path); err != nil {
			in.logger.WithError(err).Warn("Failed to ingest cue file", "path", path)
		}
	}
	return nil
}

// IngestFile parses one result file, stores the cue set, and removes the
// file on success. The filename must match the book_id inside the payload.
func (in *Ingestor) IngestFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read result file: %w", err)
	}

	var result resultFile
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("parse result file: %w", err)
	}

	if err := in.validate(path, &result); err != nil {
		return err
	}

	// Cues arrive in whatever order the analyzer found them; store sorted
	// by timestamp.
	sort.Slice(result.Cues, func(i, j int) bool {
		return result.Cues[i].Timestamp < result.Cues[j].Timestamp
	})

	cs := &domain.CueSet{
		BookID:     result.BookID,
		Duration:   result.Duration,
		Cues:       result.Cues,
		AnalyzedAt: time.Now(),
	}
	if err := in.store.PutCueSet(ctx, cs); err != nil {
		return fmt.Errorf("store cue set: %w", err)
	}

	in.logger.Info("Ingested cue set",
		"book_id", result.BookID,
		"cues", len(result.Cues),
		"duration", result.Duration,
	)

	if err := os.Remove(path); err != nil {
		in.logger.WithError(err).Warn("Failed to remove ingested file", "path", path)
	}
	return nil
}

func (in *Ingestor) validate(path string, result *resultFile) error {
	if result.BookID == "" {
		return fmt.Errorf("result file %s: missing book_id", filepath.Base(path))
	}

	name := filepath.Base(path)
	if got := strings.TrimSuffix(name, cueFileSuffix); got != result.BookID {
		return fmt.Errorf("result file %s: filename book ID %q does not match payload %q", name, got, result.BookID)
	}

	if result.Duration <= 0 {
		return fmt.Errorf("result file %s: invalid duration %v", name, result.Duration)
	}

	for _, c := range result.Cues {
		if c.Timestamp < 0 || c.Timestamp > result.Duration {
			return fmt.Errorf("result file %s: cue timestamp %v outside book duration", name, c.Timestamp)
		}
		if c.Gap < 0 {
			return fmt.Errorf("result file %s: negative gap %v", name, c.Gap)
		}
	}
	return nil
}
