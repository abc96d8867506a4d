package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemarkapp/cuemark-server/internal/domain"
)

func setupTestIndex(t *testing.T) *Index {
	t.Helper()

	index, err := NewIndex(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	return index
}

func seedBooks(t *testing.T, index *Index) {
	t.Helper()

	docs := []*Document{
		{ID: "bk_1", Title: "The Hobbit", Author: "J.R.R. Tolkien", Narrator: "Andy Serkis", Duration: 37800, HasChapters: true},
		{ID: "bk_2", Title: "The Fellowship of the Ring", Author: "J.R.R. Tolkien", Narrator: "Andy Serkis", Duration: 68400},
		{ID: "bk_3", Title: "Project Hail Mary", Author: "Andy Weir", Narrator: "Ray Porter", ASIN: "B08G9PRS1K", Duration: 57600},
	}
	require.NoError(t, index.IndexBooks(docs))
}

func TestNewIndex(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestIndexBook(t *testing.T) {
	index := setupTestIndex(t)

	book := &domain.Book{
		ID:        "bk_1",
		Title:     "The Hobbit",
		Author:    "J.R.R. Tolkien",
		Duration:  37800,
		UpdatedAt: time.Now(),
	}
	require.NoError(t, index.IndexBook(FromBook(book)))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestSearchByTitle(t *testing.T) {
	index := setupTestIndex(t)
	seedBooks(t, index)

	result, err := index.Search(context.Background(), Params{Query: "hobbit", Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "bk_1", result.Hits[0].ID)
	assert.Equal(t, "The Hobbit", result.Hits[0].Title)
}

func TestSearchByAuthor(t *testing.T) {
	index := setupTestIndex(t)
	seedBooks(t, index)

	result, err := index.Search(context.Background(), Params{Query: "tolkien", Limit: 10})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(result.Hits), 2)
}

func TestSearchFuzzy(t *testing.T) {
	index := setupTestIndex(t)
	seedBooks(t, index)

	// One-character typo still matches.
	result, err := index.Search(context.Background(), Params{Query: "hobbbit", Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "bk_1", result.Hits[0].ID)
}

func TestSearchOnlyWithoutChapters(t *testing.T) {
	index := setupTestIndex(t)
	seedBooks(t, index)

	result, err := index.Search(context.Background(), Params{
		Query:               "tolkien",
		OnlyWithoutChapters: true,
		Limit:               10,
	})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "bk_2", result.Hits[0].ID)
}

func TestSearchMatchAll(t *testing.T) {
	index := setupTestIndex(t)
	seedBooks(t, index)

	result, err := index.Search(context.Background(), Params{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), result.Total)
}

func TestDeleteBook(t *testing.T) {
	index := setupTestIndex(t)
	seedBooks(t, index)

	require.NoError(t, index.DeleteBook("bk_3"))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}
