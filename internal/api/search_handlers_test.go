package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchBooks(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.setupAdmin(t)

	for _, title := range []string{"The Hobbit", "The Fellowship of the Ring"} {
		resp := ts.api.Post("/api/v1/books", auth, map[string]any{
			"title":    title,
			"author":   "J.R.R. Tolkien",
			"path":     "/library/" + title,
			"duration": 1000,
		})
		require.Equal(t, http.StatusOK, resp.Code)
	}

	resp := ts.api.Get("/api/v1/search?q=hobbit", auth)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body SearchResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.NotEmpty(t, body.Hits)
	assert.Equal(t, "The Hobbit", body.Hits[0].Title)

	resp = ts.api.Get("/api/v1/search?q=tolkien", auth)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.GreaterOrEqual(t, len(body.Hits), 2)

	// Query is required.
	resp = ts.api.Get("/api/v1/search", auth)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	// Auth is required.
	resp = ts.api.Get("/api/v1/search?q=hobbit")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
