package category

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookrec/internal/domain"
	domainerrors "github.com/listenupapp/bookrec/internal/errors"
)

// fakePredictor answers from a description → label table and records every call.
type fakePredictor struct {
	answers map[string]string
	err     error
	calls   []string
}

func (f *fakePredictor) PredictCategory(_ context.Context, description string) (string, error) {
	f.calls = append(f.calls, description)
	if f.err != nil {
		return "", f.err
	}
	if label, ok := f.answers[description]; ok {
		return label, nil
	}
	return domain.CategoryNonfiction, nil
}

func TestBackfill_FillsOnlyMissing(t *testing.T) {
	books := []domain.Book{
		{ISBN13: 1, Description: "a wizard", SimpleCategory: domain.CategoryChildrensFiction},
		{ISBN13: 2, Description: "a dragon"},
		{ISBN13: 3, Description: "a war history"},
	}
	p := &fakePredictor{answers: map[string]string{"a dragon": domain.CategoryFiction}}

	out, err := Backfill(context.Background(), books, p, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"a dragon", "a war history"}, p.calls)
	require.Len(t, out, 3)
	assert.Equal(t, domain.CategoryChildrensFiction, out[0].SimpleCategory)
	assert.Equal(t, domain.CategoryFiction, out[1].SimpleCategory)
	assert.Equal(t, domain.CategoryNonfiction, out[2].SimpleCategory)
	for _, b := range out {
		assert.True(t, b.HasCategory())
	}
	assert.Empty(t, books[1].SimpleCategory, "input must not be mutated")
}

func TestBackfill_NoMissingNeverCallsPredictor(t *testing.T) {
	books := NewDefaultMapper().Apply([]domain.Book{
		{ISBN13: 1, Categories: "Fiction", Description: "x"},
		{ISBN13: 2, Categories: "History", Description: "y"},
	})
	p := &fakePredictor{}

	out, err := Backfill(context.Background(), books, p, nil)
	require.NoError(t, err)

	assert.Empty(t, p.calls)
	assert.Equal(t, books, out)
}

func TestBackfill_DuplicateISBN(t *testing.T) {
	books := []domain.Book{
		{ISBN13: 7, Description: "a"},
		{ISBN13: 7, Description: "b"},
	}
	p := &fakePredictor{}

	_, err := Backfill(context.Background(), books, p, nil)
	assert.ErrorIs(t, err, domainerrors.ErrPrecondition)
	assert.Empty(t, p.calls)
}

func TestBackfill_MissingDescription(t *testing.T) {
	books := []domain.Book{{ISBN13: 1, Description: "  "}}

	_, err := Backfill(context.Background(), books, &fakePredictor{}, nil)
	assert.ErrorIs(t, err, domainerrors.ErrPrecondition)
}

func TestBackfill_PredictorFailureAborts(t *testing.T) {
	books := []domain.Book{{ISBN13: 1, Description: "a"}}
	boom := errors.New("model unavailable")

	out, err := Backfill(context.Background(), books, &fakePredictor{err: boom}, nil)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, out)
}

func TestBackfill_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Backfill(ctx, []domain.Book{{ISBN13: 1, Description: "a"}}, &fakePredictor{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
