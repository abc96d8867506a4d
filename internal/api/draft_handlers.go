package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cuemarkapp/cuemark-server/internal/domain"
	"github.com/cuemarkapp/cuemark-server/internal/service"
)

func (s *Server) registerDraftRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "startDraft",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/drafts",
		Summary:     "Start a chapter draft",
		Description: "Opens an editing session on a book's cue set and returns the first engine output",
		Tags:        []string{"Drafts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleStartDraft)

	huma.Register(s.api, huma.Operation{
		OperationID: "listDrafts",
		Method:      http.MethodGet,
		Path:        "/api/v1/drafts",
		Summary:     "List your drafts",
		Tags:        []string{"Drafts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListDrafts)

	huma.Register(s.api, huma.Operation{
		OperationID: "getDraft",
		Method:      http.MethodGet,
		Path:        "/api/v1/drafts/{id}",
		Summary:     "Get a draft",
		Description: "Returns the draft with the engine output at its stored knob positions",
		Tags:        []string{"Drafts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetDraft)

	huma.Register(s.api, huma.Operation{
		OperationID: "recomputeDraft",
		Method:      http.MethodPost,
		Path:        "/api/v1/drafts/{id}/recompute",
		Summary:     "Recompute a draft",
		Description: "Moves the control and sensitivity knobs and returns the new selection. Only the knob positions persist.",
		Tags:        []string{"Drafts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRecomputeDraft)

	huma.Register(s.api, huma.Operation{
		OperationID: "confirmDraft",
		Method:      http.MethodPost,
		Path:        "/api/v1/drafts/{id}/confirm",
		Summary:     "Confirm a draft",
		Description: "Writes the selection at the stored knobs, plus any merged source cues, to the book's chapter list",
		Tags:        []string{"Drafts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleConfirmDraft)
}

// === DTOs ===

// DraftIDInput is the path parameter for draft routes.
type DraftIDInput struct {
	ID string `path:"id" maxLength:"100" doc:"Draft ID"`
}

// DraftViewOutput wraps a draft view for Huma.
type DraftViewOutput struct {
	Body service.DraftView
}

// ListDraftsInput filters the draft list.
type ListDraftsInput struct {
	BookID string `query:"book_id" maxLength:"100" doc:"Only drafts for this book"`
}

// DraftListResponse contains the caller's drafts.
type DraftListResponse struct {
	Drafts []*domain.ChapterDraft `json:"drafts" doc:"Drafts owned by the caller"`
}

// DraftListOutput wraps the draft list for Huma.
type DraftListOutput struct {
	Body DraftListResponse
}

// RecomputeInput wraps the knob positions for Huma.
type RecomputeInput struct {
	ID   string `path:"id" maxLength:"100" doc:"Draft ID"`
	Body service.RecomputeRequest
}

// ConfirmInput wraps the confirmation request for Huma.
type ConfirmInput struct {
	ID   string `path:"id" maxLength:"100" doc:"Draft ID"`
	Body service.ConfirmRequest
}

// ConfirmOutput wraps the confirmation result for Huma.
type ConfirmOutput struct {
	Body service.ConfirmResult
}

// === Handlers ===

func (s *Server) handleStartDraft(ctx context.Context, input *BookIDInput) (*DraftViewOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	view, err := s.services.Draft.Start(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}
	return &DraftViewOutput{Body: *view}, nil
}

func (s *Server) handleListDrafts(ctx context.Context, input *ListDraftsInput) (*DraftListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	drafts, err := s.services.Draft.ListForUser(ctx, userID, input.BookID)
	if err != nil {
		return nil, err
	}
	return &DraftListOutput{Body: DraftListResponse{Drafts: drafts}}, nil
}

func (s *Server) handleGetDraft(ctx context.Context, input *DraftIDInput) (*DraftViewOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	view, err := s.services.Draft.Get(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}
	return &DraftViewOutput{Body: *view}, nil
}

func (s *Server) handleRecomputeDraft(ctx context.Context, input *RecomputeInput) (*DraftViewOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	view, err := s.services.Draft.Recompute(ctx, input.ID, userID, input.Body)
	if err != nil {
		return nil, err
	}
	return &DraftViewOutput{Body: *view}, nil
}

func (s *Server) handleConfirmDraft(ctx context.Context, input *ConfirmInput) (*ConfirmOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Draft.Confirm(ctx, input.ID, userID, input.Body)
	if err != nil {
		return nil, err
	}
	return &ConfirmOutput{Body: *result}, nil
}
