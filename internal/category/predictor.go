package category

import (
	"context"
	"fmt"

	"github.com/listenupapp/bookrec/internal/domain"
	domainerrors "github.com/listenupapp/bookrec/internal/errors"
)

// Predictor picks a category for a description.
type Predictor interface {
	PredictCategory(ctx context.Context, description string) (string, error)
}

// ZeroShotClassifier scores text against caller-supplied candidate labels.
// labels and scores are aligned; order is whatever the model returns.
type ZeroShotClassifier interface {
	ClassifyZeroShot(ctx context.Context, text string, candidates []string) (labels []string, scores []float64, err error)
}

// ZeroShotPredictor turns zero-shot scores into a single category.
type ZeroShotPredictor struct {
	classifier ZeroShotClassifier
	candidates []string
}

// NewZeroShotPredictor predicts among candidates, defaulting to domain.BackfillCategories.
func NewZeroShotPredictor(classifier ZeroShotClassifier, candidates ...string) *ZeroShotPredictor {
	if len(candidates) == 0 {
		candidates = domain.BackfillCategories()
	}
	return &ZeroShotPredictor{classifier: classifier, candidates: candidates}
}

// PredictCategory returns the highest scoring label. Ties go to the label the model listed first.
func (p *ZeroShotPredictor) PredictCategory(ctx context.Context, description string) (string, error) {
	labels, scores, err := p.classifier.ClassifyZeroShot(ctx, description, p.candidates)
	if err != nil {
		return "", fmt.Errorf("zero-shot classify: %w", err)
	}
	return Argmax(labels, scores)
}

// Argmax returns labels[i] for the first maximum of scores.
func Argmax(labels []string, scores []float64) (string, error) {
	if len(labels) == 0 || len(labels) != len(scores) {
		return "", domainerrors.Internalf("zero-shot result has %d labels and %d scores", len(labels), len(scores))
	}
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return labels[best], nil
}
