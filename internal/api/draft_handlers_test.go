package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemarkapp/cuemark-server/internal/cue"
	"github.com/cuemarkapp/cuemark-server/internal/service"
)

// registerEditableBook creates a book over the API and seeds its cue set.
func registerEditableBook(t *testing.T, ts *testServer, auth string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/books", auth, map[string]any{
		"title":    "The Fifth Season",
		"author":   "N. K. Jemisin",
		"path":     "/library/fifth-season",
		"duration": 3600,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var book struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &book))

	ts.seedCueSet(t, book.ID, 3600, []cue.Cue{
		{Timestamp: 600, Gap: 5.0},
		{Timestamp: 1200, Gap: 2.0},
		{Timestamp: 1800, Gap: 4.0},
		{Timestamp: 3000, Gap: 3.0},
	})
	return book.ID
}

func TestDraftFlow(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.setupAdmin(t)
	bookID := registerEditableBook(t, ts, auth)

	// Start.
	resp := ts.api.Post("/api/v1/books/"+bookID+"/drafts", auth)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var view service.DraftView
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &view))
	require.NotEmpty(t, view.Draft.ID)
	assert.Equal(t, 4, view.CueCount)
	require.NotEmpty(t, view.Engine.Selection)
	assert.Equal(t, 0.0, view.Engine.Selection[0])

	// Recompute at full control: only the widest gap survives.
	resp = ts.api.Post("/api/v1/drafts/"+view.Draft.ID+"/recompute", auth, map[string]any{
		"control":     1.0,
		"sensitivity": 0,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &view))
	assert.Equal(t, []float64{0, 600}, view.Engine.Selection)
	assert.Equal(t, 1.0, view.Draft.Control)

	// Knobs out of range are rejected.
	resp = ts.api.Post("/api/v1/drafts/"+view.Draft.ID+"/recompute", auth, map[string]any{
		"control":     2.0,
		"sensitivity": 0,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// Confirm writes the chapter list.
	resp = ts.api.Post("/api/v1/drafts/"+view.Draft.ID+"/confirm", auth, map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var result service.ConfirmResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	assert.Equal(t, bookID, result.BookID)
	require.Len(t, result.Chapters, 2)

	resp = ts.api.Get("/api/v1/books/"+bookID, auth)
	require.Equal(t, http.StatusOK, resp.Code)
	var book struct {
		Chapters []struct {
			Title     string  `json:"title"`
			StartTime float64 `json:"start_time"`
		} `json:"chapters"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &book))
	require.Len(t, book.Chapters, 2)
	assert.Equal(t, 600.0, book.Chapters[1].StartTime)

	// A confirmed draft rejects further recomputes.
	resp = ts.api.Post("/api/v1/drafts/"+view.Draft.ID+"/recompute", auth, map[string]any{
		"control":     0.5,
		"sensitivity": 0,
	})
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestDraftRequiresCues(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.setupAdmin(t)

	resp := ts.api.Post("/api/v1/books", auth, map[string]any{
		"title":    "Unanalyzed",
		"path":     "/library/unanalyzed",
		"duration": 100,
	})
	require.Equal(t, http.StatusOK, resp.Code)
	var book struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &book))

	resp = ts.api.Post("/api/v1/books/"+book.ID+"/drafts", auth)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &apiErr))
	assert.Equal(t, "NOT_READY", apiErr.Code)
}

func TestDraftListAndGet(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.setupAdmin(t)
	bookID := registerEditableBook(t, ts, auth)

	resp := ts.api.Post("/api/v1/books/"+bookID+"/drafts", auth)
	require.Equal(t, http.StatusOK, resp.Code)
	var view service.DraftView
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &view))

	resp = ts.api.Get("/api/v1/drafts?book_id="+bookID, auth)
	require.Equal(t, http.StatusOK, resp.Code)
	var list DraftListResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	require.Len(t, list.Drafts, 1)

	resp = ts.api.Get("/api/v1/drafts/"+view.Draft.ID, auth)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/drafts/draft_missing", auth)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
