package category

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookrec/internal/domain"
)

type fakeZeroShot struct {
	labels     []string
	scores     []float64
	err        error
	candidates []string
}

func (f *fakeZeroShot) ClassifyZeroShot(_ context.Context, _ string, candidates []string) ([]string, []float64, error) {
	f.candidates = candidates
	return f.labels, f.scores, f.err
}

func TestArgmax(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		scores []float64
		want   string
	}{
		{name: "highest wins", labels: []string{"Fiction", "Nonfiction"}, scores: []float64{0.2, 0.8}, want: "Nonfiction"},
		{name: "unsorted scores", labels: []string{"Nonfiction", "Fiction"}, scores: []float64{0.3, 0.7}, want: "Fiction"},
		{name: "tie goes to first", labels: []string{"Nonfiction", "Fiction"}, scores: []float64{0.5, 0.5}, want: "Nonfiction"},
		{name: "single label", labels: []string{"Fiction"}, scores: []float64{0.1}, want: "Fiction"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Argmax(tt.labels, tt.scores)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArgmax_Misaligned(t *testing.T) {
	_, err := Argmax([]string{"Fiction"}, []float64{0.1, 0.2})
	assert.Error(t, err)
	_, err = Argmax(nil, nil)
	assert.Error(t, err)
}

func TestZeroShotPredictor(t *testing.T) {
	zs := &fakeZeroShot{labels: []string{"Fiction", "Nonfiction"}, scores: []float64{0.9, 0.1}}
	p := NewZeroShotPredictor(zs)

	got, err := p.PredictCategory(context.Background(), "a boy wizard")
	require.NoError(t, err)
	assert.Equal(t, "Fiction", got)
	assert.Equal(t, domain.BackfillCategories(), zs.candidates)
}

func TestZeroShotPredictor_Error(t *testing.T) {
	boom := errors.New("503")
	p := NewZeroShotPredictor(&fakeZeroShot{err: boom}, "A", "B")

	_, err := p.PredictCategory(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}
