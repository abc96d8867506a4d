package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemarkapp/cuemark-server/internal/cue"
	"github.com/cuemarkapp/cuemark-server/internal/domain"
	"github.com/cuemarkapp/cuemark-server/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func TestUserCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := &domain.User{
		ID:          "usr_1",
		Email:       "ada@example.com",
		DisplayName: "Ada",
		Role:        domain.RoleAdmin,
	}

	require.NoError(t, s.Users.Create(ctx, user.ID, user))

	got, err := s.Users.Get(ctx, "usr_1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.Equal(t, domain.RoleAdmin, got.Role)

	// Duplicate ID is rejected.
	err = s.Users.Create(ctx, user.ID, user)
	assert.True(t, store.ErrAlreadyExists.Is(err))
}

func TestUserEmailIndex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := &domain.User{ID: "usr_1", Email: "Ada@Example.com", DisplayName: "Ada"}
	require.NoError(t, s.Users.Create(ctx, user.ID, user))

	// Lookup is case-insensitive.
	got, err := s.GetUserByEmail(ctx, "ADA@example.COM")
	require.NoError(t, err)
	assert.Equal(t, "usr_1", got.ID)

	// A second user with the same email hits the index.
	dup := &domain.User{ID: "usr_2", Email: "ada@example.com", DisplayName: "Imposter"}
	err = s.Users.Create(ctx, dup.ID, dup)
	assert.True(t, store.ErrAlreadyExists.Is(err))

	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.True(t, store.ErrNotFound.Is(err))
}

func TestEmailIndexFollowsUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := &domain.User{ID: "usr_1", Email: "old@example.com"}
	require.NoError(t, s.Users.Create(ctx, user.ID, user))

	user.Email = "new@example.com"
	require.NoError(t, s.Users.Put(ctx, user.ID, user))

	got, err := s.GetUserByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "usr_1", got.ID)

	_, err = s.GetUserByEmail(ctx, "old@example.com")
	assert.True(t, store.ErrNotFound.Is(err))
}

func TestDeleteRemovesIndexEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := &domain.User{ID: "usr_1", Email: "ada@example.com"}
	require.NoError(t, s.Users.Create(ctx, user.ID, user))
	require.NoError(t, s.Users.Delete(ctx, user.ID))

	_, err := s.Users.Get(ctx, "usr_1")
	assert.True(t, store.ErrNotFound.Is(err))

	_, err = s.GetUserByEmail(ctx, "ada@example.com")
	assert.True(t, store.ErrNotFound.Is(err))
}

func TestCueSetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cs := &domain.CueSet{
		BookID:   "bk_1",
		Duration: 3600,
		Cues: []cue.Cue{
			{Timestamp: 120, Gap: 2.5},
			{Timestamp: 1800, Gap: 6.0},
		},
		AnalyzedAt: time.Now().UTC(),
	}
	require.NoError(t, s.PutCueSet(ctx, cs))

	got, err := s.GetCueSet(ctx, "bk_1")
	require.NoError(t, err)
	assert.Equal(t, 3600.0, got.Duration)
	require.Len(t, got.Cues, 2)
	assert.Equal(t, 6.0, got.Cues[1].Gap)

	// A book without analyzer output reads as not found.
	_, err = s.GetCueSet(ctx, "bk_missing")
	assert.True(t, store.ErrNotFound.Is(err))
}

func TestSourcesForBook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, src := range []*domain.ChapterSource{
		{ID: "src_1", BookID: "bk_1", Kind: domain.SourceEmbedded},
		{ID: "src_2", BookID: "bk_1", Kind: domain.SourceCatalog},
		{ID: "src_3", BookID: "bk_2", Kind: domain.SourceEmbedded},
	} {
		require.NoError(t, s.Sources.Create(ctx, src.ID, src))
	}

	got, err := s.SourcesForBook(ctx, "bk_1")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	for _, src := range got {
		assert.Equal(t, "bk_1", src.BookID)
	}
}

func TestDraftsForUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, d := range []*domain.ChapterDraft{
		{ID: "drf_1", BookID: "bk_1", UserID: "usr_1"},
		{ID: "drf_2", BookID: "bk_2", UserID: "usr_1"},
		{ID: "drf_3", BookID: "bk_1", UserID: "usr_2"},
	} {
		require.NoError(t, s.Drafts.Create(ctx, d.ID, d))
	}

	all, err := s.DraftsForUser(ctx, "usr_1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := s.DraftsForUser(ctx, "usr_1", "bk_1")
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "drf_1", scoped[0].ID)
}

func TestInstanceSingleton(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetInstance(ctx)
	assert.True(t, store.ErrNotFound.Is(err))

	inst := domain.NewInstance("inst_1", "Living Room")
	require.NoError(t, s.PutInstance(ctx, inst))

	got, err := s.GetInstance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Living Room", got.Name)
	assert.Equal(t, inst.ID, got.ID)
}

func TestListSkipsIndexKeys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		u := &domain.User{ID: string(rune('a' + i)), Email: email}
		require.NoError(t, s.Users.Create(ctx, u.ID, u))
	}

	count := 0
	for u, err := range s.Users.List(ctx) {
		require.NoError(t, err)
		require.NotNil(t, u)
		count++
	}
	assert.Equal(t, 3, count)
}

func TestBookPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := store.New(dir, nil)
	require.NoError(t, err)

	book := &domain.Book{
		ID:       "bk_1",
		Title:    "The Long Way Home",
		Author:   "J. Doe",
		Duration: 7200,
	}
	require.NoError(t, s.Books.Create(ctx, book.ID, book))
	require.NoError(t, s.Close())

	s, err = store.New(dir, nil)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetBook(ctx, "bk_1")
	require.NoError(t, err)
	assert.Equal(t, "The Long Way Home", got.Title)

	books, err := s.ListBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 1)
}
