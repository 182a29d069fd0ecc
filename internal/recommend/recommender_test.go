package recommend

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookrec/internal/domain"
	domainerrors "github.com/listenupapp/bookrec/internal/errors"
)

type stubRetriever struct {
	docs  []domain.Document
	err   error
	k     int
	query string
	calls int
}

func (s *stubRetriever) SimilaritySearch(_ context.Context, query string, k int) ([]domain.Document, error) {
	s.calls++
	s.query, s.k = query, k
	return s.docs, s.err
}

// mapCatalog returns known books sorted by isbn, deliberately not in the requested order.
type mapCatalog struct {
	books map[int64]domain.Book
	err   error
}

func (m *mapCatalog) GetByISBNs(_ context.Context, ids []int64) ([]domain.Book, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Book
	for _, id := range ids {
		if b, ok := m.books[id]; ok {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b domain.Book) int { return int(a.ISBN13 - b.ISBN13) })
	return out, nil
}

func newCatalog(books ...domain.Book) *mapCatalog {
	m := &mapCatalog{books: make(map[int64]domain.Book)}
	for _, b := range books {
		m.books[b.ISBN13] = b
	}
	return m
}

func TestRecommender_PreservesRankAndDedupes(t *testing.T) {
	r := &stubRetriever{docs: []domain.Document{
		{Text: "30 third isbn first"},
		{Text: "10 ten"},
		{Text: "30 duplicate chunk"},
		{Text: "not-a-number skipped"},
		{Text: "99 not in catalog"},
		{Text: "20 twenty"},
	}}
	cat := newCatalog(
		domain.Book{ISBN13: 10, SimpleCategory: "Nonfiction"},
		domain.Book{ISBN13: 20, SimpleCategory: "Fiction"},
		domain.Book{ISBN13: 30, SimpleCategory: "Fiction"},
	)

	res, err := NewRecommender(r, cat, domain.EmotionLabels(), nil).Recommend(context.Background(), Request{Query: "wizards", TopK: 6})
	require.NoError(t, err)

	assert.Equal(t, 6, r.k)
	assert.Equal(t, "wizards", r.query)
	assert.Equal(t, 3, res.Raw)
	assert.Equal(t, []int64{30, 10, 20}, isbns(res.Books))
	assert.Equal(t, "All", res.Category)
	assert.Equal(t, "All", res.Emotion)
}

func TestRecommender_Filters(t *testing.T) {
	r := &stubRetriever{docs: []domain.Document{{Text: "1 a"}, {Text: "2 b"}, {Text: "3 c"}}}
	cat := newCatalog(
		domain.Book{ISBN13: 1, SimpleCategory: "Fiction", Emotions: domain.EmotionScores{domain.Joy: 0}},
		domain.Book{ISBN13: 2, SimpleCategory: "Nonfiction", Emotions: domain.EmotionScores{domain.Joy: 0}},
		domain.Book{ISBN13: 3, SimpleCategory: "Fiction", Emotions: domain.EmotionScores{domain.Joy: 0.9}},
	)

	res, err := NewRecommender(r, cat, domain.EmotionLabels(), nil).Recommend(context.Background(), Request{
		Query: "q", Category: "Fiction", Emotion: "joy",
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultTopK, r.k)
	assert.Equal(t, 3, res.Raw)
	assert.Equal(t, []int64{3}, isbns(res.Books))
	assert.False(t, res.Empty())
}

func TestRecommender_EmptyIsValid(t *testing.T) {
	r := &stubRetriever{docs: []domain.Document{{Text: "1 a"}}}
	cat := newCatalog(domain.Book{ISBN13: 1, SimpleCategory: "Nonfiction"})

	res, err := NewRecommender(r, cat, domain.EmotionLabels(), nil).Recommend(context.Background(), Request{Query: "q", Category: "Poetry"})
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Equal(t, 1, res.Raw)
}

func TestRecommender_UnknownEmotionBeforeRetrieval(t *testing.T) {
	r := &stubRetriever{}

	_, err := NewRecommender(r, newCatalog(), domain.EmotionLabels(), nil).Recommend(context.Background(), Request{Query: "q", Emotion: "glee"})
	assert.ErrorIs(t, err, domainerrors.ErrConfiguration)
	assert.Zero(t, r.calls)
}

func TestRecommender_Errors(t *testing.T) {
	boom := errors.New("index offline")

	_, err := NewRecommender(&stubRetriever{err: boom}, newCatalog(), domain.EmotionLabels(), nil).
		Recommend(context.Background(), Request{Query: "q"})
	assert.ErrorIs(t, err, boom)

	_, err = NewRecommender(&stubRetriever{docs: []domain.Document{{Text: "1 a"}}}, &mapCatalog{err: boom}, domain.EmotionLabels(), nil).
		Recommend(context.Background(), Request{Query: "q"})
	assert.ErrorIs(t, err, boom)

	_, err = NewRecommender(&stubRetriever{}, newCatalog(), domain.EmotionLabels(), nil).
		Recommend(context.Background(), Request{})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}
