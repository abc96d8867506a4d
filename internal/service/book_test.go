package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemarkapp/cuemark-server/internal/cue"
	"github.com/cuemarkapp/cuemark-server/internal/domain"
	domainerrors "github.com/cuemarkapp/cuemark-server/internal/errors"
	"github.com/cuemarkapp/cuemark-server/internal/search"
	"github.com/cuemarkapp/cuemark-server/internal/store"
	"github.com/cuemarkapp/cuemark-server/internal/validation"
)

func setupBookTest(t *testing.T) (*BookService, *store.Store, *search.Index) {
	t.Helper()

	tmpDir := t.TempDir()

	s, err := store.New(tmpDir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	idx, err := search.NewIndex(search.Options{DataPath: tmpDir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	return NewBookService(s, idx, validation.New(), testLogger()), s, idx
}

func TestRegisterBook(t *testing.T) {
	svc, _, idx := setupBookTest(t)
	ctx := context.Background()

	book, err := svc.Register(ctx, RegisterBookRequest{
		Title:    "Piranesi",
		Author:   "Susanna Clarke",
		ASIN:     "B08C5HSH99",
		Path:     "/library/piranesi",
		Duration: 24000,
		AudioFiles: []RegisterAudioFile{
			{Path: "/library/piranesi/part1.m4b", Duration: 12000, StartOffset: 0},
			{Path: "/library/piranesi/part2.m4b", Duration: 12000, StartOffset: 12000},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, book.ID)
	require.Len(t, book.AudioFiles, 2)
	assert.Equal(t, "part1.m4b", book.AudioFiles[0].Filename)

	got, err := svc.Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Piranesi", got.Title)

	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestRegisterBookValidation(t *testing.T) {
	svc, _, _ := setupBookTest(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterBookRequest{Path: "/x", Duration: 10})
	assert.ErrorIs(t, err, domainerrors.ErrValidation, "title is required")

	_, err = svc.Register(ctx, RegisterBookRequest{Title: "X", Path: "/x", Duration: 0})
	assert.ErrorIs(t, err, domainerrors.ErrValidation, "duration must be positive")

	_, err = svc.Register(ctx, RegisterBookRequest{Title: "X", Path: "/x", Duration: 10, ASIN: "tooshort"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation, "ASIN must be ten characters")
}

func TestGetBookNotFound(t *testing.T) {
	svc, _, _ := setupBookTest(t)

	_, err := svc.Get(context.Background(), "book_nope")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestListBooksEditingStatus(t *testing.T) {
	svc, s, _ := setupBookTest(t)
	ctx := context.Background()

	withCues, err := svc.Register(ctx, RegisterBookRequest{Title: "A", Path: "/a", Duration: 100})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterBookRequest{Title: "B", Path: "/b", Duration: 100})
	require.NoError(t, err)

	cs := domain.NewCueSet(withCues.ID, 100, []cue.Cue{{Timestamp: 50, Gap: 2}})
	require.NoError(t, s.PutCueSet(ctx, cs))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	byID := make(map[string]BookSummary, len(list))
	for _, b := range list {
		byID[b.ID] = b
	}
	assert.True(t, byID[withCues.ID].HasCues)
	assert.Equal(t, 1, byID[withCues.ID].CueCount)
	for id, b := range byID {
		if id != withCues.ID {
			assert.False(t, b.HasCues)
		}
	}
}

func TestCuesNotReady(t *testing.T) {
	svc, _, _ := setupBookTest(t)
	ctx := context.Background()

	book, err := svc.Register(ctx, RegisterBookRequest{Title: "A", Path: "/a", Duration: 100})
	require.NoError(t, err)

	_, err = svc.Cues(ctx, book.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotReady)

	_, err = svc.Cues(ctx, "book_nope")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestDeleteBook(t *testing.T) {
	svc, s, idx := setupBookTest(t)
	ctx := context.Background()

	book, err := svc.Register(ctx, RegisterBookRequest{Title: "A", Path: "/a", Duration: 100})
	require.NoError(t, err)
	require.NoError(t, s.PutCueSet(ctx, domain.NewCueSet(book.ID, 100, nil)))
	require.NoError(t, s.Sources.Create(ctx, "source_x", &domain.ChapterSource{
		ID: "source_x", BookID: book.ID, Kind: domain.SourceFileBounds,
	}))

	require.NoError(t, svc.Delete(ctx, book.ID))

	_, err = svc.Get(ctx, book.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = s.GetCueSet(ctx, book.ID)
	assert.Error(t, err)

	srcs, err := s.SourcesForBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Empty(t, srcs)

	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestUpdateChapters(t *testing.T) {
	svc, _, _ := setupBookTest(t)
	ctx := context.Background()

	book, err := svc.Register(ctx, RegisterBookRequest{Title: "A", Path: "/a", Duration: 100})
	require.NoError(t, err)

	chapters := []domain.Chapter{
		{Title: "Opening Credits", StartTime: 0},
		{Title: "Chapter 1", StartTime: 42.5},
	}
	require.NoError(t, svc.UpdateChapters(ctx, book, chapters))

	fresh, err := svc.Get(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, fresh.Chapters, 2)
	assert.Equal(t, 42.5, fresh.Chapters[1].StartTime)
}
