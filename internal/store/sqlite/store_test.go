package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookrec/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	require.NoError(t, err, "open store")
	t.Cleanup(func() { s.Close() })
	return s
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	for _, table := range []string{"books", "catalog_meta"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.ReplaceBooks(context.Background(), []domain.Book{{ISBN13: 1, Title: "A"}}))
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReplaceBooks_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := domain.Book{
		ISBN13:            9780002005883,
		ISBN10:            "0002005883",
		Title:             "Gilead",
		Authors:           "Marilynne Robinson",
		Categories:        "Fiction",
		Description:       "A novel that readers and critics have been eagerly anticipating.",
		PublishedYear:     intPtr(2004),
		AverageRating:     floatPtr(3.85),
		NumPages:          intPtr(247),
		TitleAndSubtitle:  "Gilead",
		TaggedDescription: "9780002005883 A novel that readers and critics have been eagerly anticipating.",
		SimpleCategory:    domain.CategoryFiction,
		Emotions:          domain.EmotionScores{domain.Joy: 0.4, domain.Sadness: 0.9},
	}
	require.NoError(t, s.ReplaceBooks(ctx, []domain.Book{in}))

	got, ok, err := s.GetBook(ctx, in.ISBN13)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, in.Title, got.Title)
	assert.Equal(t, in.SimpleCategory, got.SimpleCategory)
	require.NotNil(t, got.PublishedYear)
	assert.Equal(t, 2004, *got.PublishedYear)
	assert.Nil(t, got.RatingsCount)
	assert.InDelta(t, 3.85, *got.AverageRating, 1e-9)

	assert.Len(t, got.Emotions, 2)
	joy, ok := got.Emotions.Get(domain.Joy)
	assert.True(t, ok)
	assert.InDelta(t, 0.4, joy, 1e-9)
	_, ok = got.Emotions.Get(domain.Fear)
	assert.False(t, ok, "absent score stays absent")
}

func TestGetBook_Missing(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.GetBook(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetByISBNs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceBooks(ctx, []domain.Book{
		{ISBN13: 3, Title: "C"},
		{ISBN13: 1, Title: "A"},
		{ISBN13: 2, Title: "B"},
	}))

	books, err := s.GetByISBNs(ctx, []int64{3, 99, 1, 3})
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, int64(3), books[0].ISBN13, "argument order is kept")
	assert.Equal(t, int64(1), books[1].ISBN13)

	books, err = s.GetByISBNs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestGetByISBNs_LargeLookupIsBatched(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	books := make([]domain.Book, 0, 1200)
	ids := make([]int64, 0, 1200)
	for i := range 1200 {
		books = append(books, domain.Book{ISBN13: int64(i + 1), Title: "T"})
		ids = append(ids, int64(i+1))
	}
	require.NoError(t, s.ReplaceBooks(ctx, books))

	got, err := s.GetByISBNs(ctx, ids)
	require.NoError(t, err)
	assert.Len(t, got, 1200)
}

func TestCategoryCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceBooks(ctx, []domain.Book{
		{ISBN13: 2, SimpleCategory: domain.CategoryFiction},
		{ISBN13: 1, SimpleCategory: domain.CategoryFiction},
		{ISBN13: 3, SimpleCategory: domain.CategoryNonfiction},
	}))

	counts, err := s.CategoryCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{domain.CategoryFiction: 2, domain.CategoryNonfiction: 1}, counts)
}

func TestMeta(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v, err := s.Meta(ctx, "run_id")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetMeta(ctx, "run_id", "run_a"))
	require.NoError(t, s.SetMeta(ctx, "run_id", "run_b"))

	v, err = s.Meta(ctx, "run_id")
	require.NoError(t, err)
	assert.Equal(t, "run_b", v)
	assert.NoError(t, s.Ping(ctx))
}

func TestReplaceBooks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceBooks(ctx, []domain.Book{{ISBN13: 1, Title: "Old"}, {ISBN13: 2}}))
	require.NoError(t, s.ReplaceBooks(ctx, []domain.Book{{ISBN13: 1, Title: "New"}, {ISBN13: 3}}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, ok, err := s.GetBook(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "New", got.Title)
	assert.Nil(t, got.Emotions)

	_, ok, err = s.GetBook(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok, "rows missing from the new set are removed")

	require.NoError(t, s.ReplaceBooks(ctx, nil))
	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
