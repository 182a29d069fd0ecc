package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/bookrec/internal/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// wordEmbedder maps each text to a 3-dimensional vector counting the words "war", "love" and "space".
type wordEmbedder struct {
	calls int
	fail  error
}

func (e *wordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.fail != nil {
		return nil, e.fail
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, 3)
		for _, w := range strings.Fields(strings.ToLower(text)) {
			switch w {
			case "war":
				v[0]++
			case "love":
				v[1]++
			case "space":
				v[2]++
			}
		}
		out[i] = v
	}
	return out, nil
}

// putRecords writes records through one batch writer.
func putRecords(ctx context.Context, s *Store, records []Record) error {
	w, err := s.NewBatchWriter(len(records))
	if err != nil {
		return err
	}
	defer w.Cancel()
	for _, r := range records {
		if err := w.Put(ctx, r); err != nil {
			return err
		}
	}
	return w.Flush()
}

func getRecord(t *testing.T, s *Store, isbn13 int64) (Record, bool) {
	t.Helper()
	var (
		rec   Record
		found bool
	)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(docKey(isbn13))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			rec, err = decodeRecord(isbn13, val)
			found = err == nil
			return err
		})
	})
	require.NoError(t, err)
	return rec, found
}

func TestRecordEncoding(t *testing.T) {
	in := Record{ISBN13: 9780002005883, Text: "9780002005883 a story", Vector: []float32{0.5, -1.25, 3}}

	out, err := decodeRecord(in.ISBN13, encodeRecord(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = decodeRecord(1, []byte{1, 0, 0, 0})
	assert.Error(t, err, "truncated vector")
}

func TestPutAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, putRecords(ctx, s, []Record{
		{ISBN13: 1, Text: "1 war", Vector: []float32{1, 0}},
		{ISBN13: 2, Text: "2 love", Vector: []float32{0, 1}},
	}))

	rec, ok := getRecord(t, s, 2)
	require.True(t, ok)
	assert.Equal(t, "2 love", rec.Text)

	_, ok = getRecord(t, s, 3)
	assert.False(t, ok)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	dim, err := s.Dimension()
	require.NoError(t, err)
	assert.Equal(t, 2, dim)
}

func TestPut_RejectsDimensionMismatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, putRecords(ctx, s, []Record{{ISBN13: 1, Vector: []float32{1, 0}}}))

	err := putRecords(ctx, s, []Record{{ISBN13: 2, Vector: []float32{1, 0, 0}}})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	err = putRecords(ctx, s, []Record{{ISBN13: 3}})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestSearch_RanksByCosine(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, putRecords(ctx, s, []Record{
		{ISBN13: 30, Text: "30 c", Vector: []float32{0, 1}},
		{ISBN13: 10, Text: "10 a", Vector: []float32{1, 0}},
		{ISBN13: 20, Text: "20 b", Vector: []float32{1, 1}},
	}))

	matches, err := s.Search(ctx, []float32{2, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, int64(10), matches[0].ISBN13)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
	assert.Equal(t, "10 a", matches[0].Text)
	assert.Equal(t, int64(20), matches[1].ISBN13)
	assert.InDelta(t, 0.70710678, matches[1].Score, 1e-6)
}

func TestSearch_TiesByISBN(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, putRecords(ctx, s, []Record{
		{ISBN13: 9, Text: "9", Vector: []float32{1, 0}},
		{ISBN13: 3, Text: "3", Vector: []float32{2, 0}},
		{ISBN13: 5, Text: "5", Vector: []float32{0, 0}},
	}))

	matches, err := s.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, []int64{3, 9, 5}, []int64{matches[0].ISBN13, matches[1].ISBN13, matches[2].ISBN13})
	assert.Zero(t, matches[2].Score, "zero vector scores 0")
}

func TestSearch_Errors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Search(ctx, []float32{1}, 0)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	matches, err := s.Search(ctx, []float32{1}, 3)
	require.NoError(t, err)
	assert.Empty(t, matches, "empty store")

	require.NoError(t, putRecords(ctx, s, []Record{{ISBN13: 1, Vector: []float32{1, 0}}}))
	_, err = s.Search(ctx, []float32{1, 0, 0}, 3)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestReset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, putRecords(ctx, s, []Record{{ISBN13: 1, Vector: []float32{1, 0}}}))
	require.NoError(t, s.Reset())

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	dim, err := s.Dimension()
	require.NoError(t, err)
	assert.Zero(t, dim)
}

func TestIndexDocumentsAndRetrieve(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	emb := &wordEmbedder{}

	docs := []string{
		"9780000000001 a war story of war",
		"9780000000002 a love story",
		"9780000000003 love in space",
	}
	n, err := s.IndexDocuments(ctx, emb, docs, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, emb.calls, "documents are embedded in batches")

	r := NewRetriever(emb, s)
	got, err := r.SimilaritySearch(ctx, "love", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "9780000000002 a love story", got[0].Text)
	assert.Equal(t, "9780000000003 love in space", got[1].Text)
	assert.Greater(t, got[0].Score, got[1].Score)
}

func TestIndexDocuments_RejectsBadInputBeforeEmbedding(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	emb := &wordEmbedder{}

	_, err := s.IndexDocuments(ctx, emb, []string{"1 ok", "not-a-number text"}, 0)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = s.IndexDocuments(ctx, emb, []string{"1 a", "1 b"}, 0)
	assert.ErrorIs(t, err, domainerrors.ErrPrecondition)

	assert.Zero(t, emb.calls)
}

func TestIndexDocuments_EmbedderFailure(t *testing.T) {
	s := newTestStore(t)
	boom := errors.New("upstream down")

	_, err := s.IndexDocuments(context.Background(), &wordEmbedder{fail: boom}, []string{"1 war"}, 0)
	assert.ErrorIs(t, err, boom)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNew_PersistsToDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors")
	ctx := context.Background()

	s, err := New(path, nil)
	require.NoError(t, err)
	require.NoError(t, putRecords(ctx, s, []Record{{ISBN13: 7, Text: "7 x", Vector: []float32{1}}}))
	require.NoError(t, s.Close())

	s, err = New(path, nil)
	require.NoError(t, err)
	defer s.Close()

	rec, ok := getRecord(t, s, 7)
	require.True(t, ok)
	assert.Equal(t, []float32{1}, rec.Vector)
}
