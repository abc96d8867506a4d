package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/cuemarkapp/cuemark-server/internal/cue"
	"github.com/cuemarkapp/cuemark-server/internal/domain"
	domainerrors "github.com/cuemarkapp/cuemark-server/internal/errors"
	"github.com/cuemarkapp/cuemark-server/internal/id"
	"github.com/cuemarkapp/cuemark-server/internal/logger"
	"github.com/cuemarkapp/cuemark-server/internal/store"
	"github.com/cuemarkapp/cuemark-server/internal/validation"
)

// DraftService drives the cue engine for editing sessions. The engine is
// pure; this service owns loading its inputs, persisting knob positions, and
// writing the confirmed chapter list back to the book.
type DraftService struct {
	store     *store.Store
	books     *BookService
	sources   *SourceService
	validator *validation.Validator
	logger    *logger.Logger
}

// NewDraftService creates a draft service.
func NewDraftService(s *store.Store, books *BookService, srcs *SourceService, v *validation.Validator, log *logger.Logger) *DraftService {
	return &DraftService{store: s, books: books, sources: srcs, validator: v, logger: log}
}

// RecomputeRequest carries the knob positions for a recompute.
type RecomputeRequest struct {
	Control     float64 `json:"control" validate:"gte=0,lte=1"`
	Sensitivity float64 `json:"sensitivity" validate:"gte=-2,lte=2"`
}

// ConfirmRequest finalizes a draft. MergeSourceIDs name the sources whose
// unaligned cues get folded into the confirmed list.
type ConfirmRequest struct {
	MergeSourceIDs []string `json:"merge_source_ids,omitempty"`
}

// SourceInfo is the client-facing description of one chapter source.
type SourceInfo struct {
	ID           string            `json:"id"`
	Kind         domain.SourceKind `json:"kind"`
	Name         string            `json:"name"`
	ShortName    string            `json:"short_name"`
	ChapterCount int               `json:"chapter_count"`
}

// DraftView is a draft plus the engine output for its current knobs.
type DraftView struct {
	Draft    domain.ChapterDraft `json:"draft"`
	Duration float64             `json:"duration"`
	CueCount int                 `json:"cue_count"`
	Sources  []SourceInfo        `json:"sources"`
	Engine   cue.Outputs         `json:"engine"`
}

// ConfirmResult is the outcome of confirming a draft.
type ConfirmResult struct {
	BookID   string           `json:"book_id"`
	Chapters []domain.Chapter `json:"chapters"`
	Merged   int              `json:"merged"`
}

// Start opens an editing session on a book: caps the cue set, gathers
// sources, preselects the control position, and returns the first engine
// output.
func (s *DraftService) Start(ctx context.Context, bookID, userID string) (*DraftView, error) {
	book, err := s.books.Get(ctx, bookID)
	if err != nil {
		return nil, err
	}
	cueSet, err := s.books.Cues(ctx, bookID)
	if err != nil {
		return nil, err
	}

	capped, truncated := cue.Cap(cueSet.Cues, cue.MaxCandidates)
	minGap, maxGap := cue.GapRange(capped)

	srcs, err := s.sources.ForBook(ctx, book, false)
	if err != nil {
		return nil, err
	}

	counts := make([]int, len(srcs))
	for i, src := range srcs {
		counts[i] = src.ChapterCount()
	}
	control := cue.Preselect(capped, counts, minGap, maxGap)

	draftID, err := id.Generate("draft")
	if err != nil {
		return nil, fmt.Errorf("generate draft ID: %w", err)
	}
	draft := domain.NewChapterDraft(draftID, bookID, userID, control, truncated)
	if err := s.store.Drafts.Create(ctx, draft.ID, draft); err != nil {
		return nil, fmt.Errorf("store draft: %w", err)
	}

	s.logger.Info("Draft started",
		"draft_id", draft.ID,
		"book_id", bookID,
		"cues", len(capped),
		"truncated", truncated,
		"control", control,
	)

	return s.view(draft, cueSet, capped, srcs), nil
}

// Get returns the view of an existing draft at its stored knob positions.
func (s *DraftService) Get(ctx context.Context, draftID, userID string) (*DraftView, error) {
	draft, cueSet, capped, srcs, err := s.load(ctx, draftID, userID)
	if err != nil {
		return nil, err
	}
	return s.view(draft, cueSet, capped, srcs), nil
}

// ListForUser returns a user's drafts, optionally scoped to one book.
func (s *DraftService) ListForUser(ctx context.Context, userID, bookID string) ([]*domain.ChapterDraft, error) {
	drafts, err := s.store.DraftsForUser(ctx, userID, bookID)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	return drafts, nil
}

// Recompute applies a knob mutation: persists the positions on the draft and
// returns the pure engine output. Nothing else is stored; confirmed chapters
// only change on Confirm.
func (s *DraftService) Recompute(ctx context.Context, draftID, userID string, req RecomputeRequest) (*DraftView, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	draft, cueSet, capped, srcs, err := s.load(ctx, draftID, userID)
	if err != nil {
		return nil, err
	}
	if draft.Confirmed {
		return nil, domainerrors.Conflict("draft is already confirmed")
	}

	draft.SetKnobs(req.Control, req.Sensitivity)
	if err := s.store.Drafts.Put(ctx, draft.ID, draft); err != nil {
		return nil, fmt.Errorf("store draft: %w", err)
	}

	return s.view(draft, cueSet, capped, srcs), nil
}

// Confirm computes the final selection at the draft's knobs, folds in the
// unaligned cues of the named sources, and writes the book's chapter list.
func (s *DraftService) Confirm(ctx context.Context, draftID, userID string, req ConfirmRequest) (*ConfirmResult, error) {
	draft, cueSet, capped, srcs, err := s.load(ctx, draftID, userID)
	if err != nil {
		return nil, err
	}
	if draft.Confirmed {
		return nil, domainerrors.Conflict("draft is already confirmed")
	}

	bySourceID := make(map[string]*domain.ChapterSource, len(srcs))
	for _, src := range srcs {
		bySourceID[src.ID] = src
	}
	for _, sid := range req.MergeSourceIDs {
		if _, ok := bySourceID[sid]; !ok {
			return nil, domainerrors.Validationf("unknown merge source %q", sid)
		}
	}

	minGap, maxGap := cue.GapRange(capped)
	threshold := cue.Threshold(draft.Control, minGap, maxGap)
	selected := cue.Select(capped, threshold, draft.Sensitivity, cueSet.Duration)

	// Fold in cues the named sources have that the selection missed.
	merged := 0
	for _, sid := range req.MergeSourceIDs {
		src := bySourceID[sid]
		for _, ts := range cue.Unaligned(cue.StripAnchor(src.Timestamps()), selected) {
			selected = append(selected, ts)
			merged++
		}
	}
	sort.Float64s(selected)

	chapters := buildChapters(selected, srcs)

	book, err := s.books.Get(ctx, draft.BookID)
	if err != nil {
		return nil, err
	}
	if err := s.books.UpdateChapters(ctx, book, chapters); err != nil {
		return nil, err
	}

	draft.MarkConfirmed(req.MergeSourceIDs)
	if err := s.store.Drafts.Put(ctx, draft.ID, draft); err != nil {
		return nil, fmt.Errorf("store draft: %w", err)
	}

	s.logger.Info("Draft confirmed",
		"draft_id", draft.ID,
		"book_id", draft.BookID,
		"chapters", len(chapters),
		"merged", merged,
	)

	return &ConfirmResult{
		BookID:   draft.BookID,
		Chapters: chapters,
		Merged:   merged,
	}, nil
}

// load fetches a draft with ownership check plus everything the engine
// needs for it.
func (s *DraftService) load(ctx context.Context, draftID, userID string) (*domain.ChapterDraft, *domain.CueSet, []cue.Cue, []*domain.ChapterSource, error) {
	draft, err := s.store.Drafts.Get(ctx, draftID)
	if err != nil {
		if store.ErrNotFound.Is(err) {
			return nil, nil, nil, nil, domainerrors.NotFound("draft not found")
		}
		return nil, nil, nil, nil, fmt.Errorf("get draft: %w", err)
	}
	if draft.UserID != userID {
		return nil, nil, nil, nil, domainerrors.Forbidden("draft belongs to another user")
	}

	cueSet, err := s.books.Cues(ctx, draft.BookID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	capped, _ := cue.Cap(cueSet.Cues, cue.MaxCandidates)

	book, err := s.books.Get(ctx, draft.BookID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	srcs, err := s.sources.ForBook(ctx, book, false)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	return draft, cueSet, capped, srcs, nil
}

// view runs the engine at the draft's knobs and assembles the response.
func (s *DraftService) view(draft *domain.ChapterDraft, cueSet *domain.CueSet, capped []cue.Cue, srcs []*domain.ChapterSource) *DraftView {
	existing := make(map[string][]float64, len(srcs))
	infos := make([]SourceInfo, 0, len(srcs))
	for _, src := range srcs {
		existing[src.ID] = src.Timestamps()
		infos = append(infos, SourceInfo{
			ID:           src.ID,
			Kind:         src.Kind,
			Name:         src.Name,
			ShortName:    src.ShortName,
			ChapterCount: src.ChapterCount(),
		})
	}

	out := cue.Recompute(cue.Inputs{
		Cues:        capped,
		Duration:    cueSet.Duration,
		Control:     draft.Control,
		Sensitivity: draft.Sensitivity,
		Existing:    existing,
	})

	return &DraftView{
		Draft:    *draft,
		Duration: cueSet.Duration,
		CueCount: len(capped),
		Sources:  infos,
		Engine:   out,
	}
}

// buildChapters turns selected timestamps into titled chapters. Titles come
// from a source cue within the match tolerance when one exists, otherwise
// chapters are numbered.
func buildChapters(selected []float64, srcs []*domain.ChapterSource) []domain.Chapter {
	chapters := make([]domain.Chapter, 0, len(selected))
	for i, ts := range selected {
		title := titleNear(ts, srcs)
		if title == "" {
			title = fmt.Sprintf("Chapter %d", i+1)
		}
		chapters = append(chapters, domain.Chapter{Title: title, StartTime: ts})
	}
	return chapters
}

func titleNear(ts float64, srcs []*domain.ChapterSource) string {
	best := ""
	bestDist := cue.MatchTolerance
	for _, src := range srcs {
		for _, c := range src.Cues {
			if c.Title == "" {
				continue
			}
			if d := math.Abs(c.Timestamp - ts); d <= bestDist {
				best = c.Title
				bestDist = d
			}
		}
	}
	return best
}
