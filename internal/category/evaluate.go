package category

import (
	"context"
	"fmt"

	"github.com/listenupapp/bookrec/internal/domain"
)

// DefaultSamplePerLabel is the per-label sample size used by Evaluate.
const DefaultSamplePerLabel = 300

// Prediction is one evaluated row.
type Prediction struct {
	ISBN13    int64  `json:"isbn13"`
	Actual    string `json:"actual"`
	Predicted string `json:"predicted"`
	Correct   bool   `json:"correct"`
}

// Evaluation summarizes predictor accuracy on books whose category is already known.
type Evaluation struct {
	Predictions []Prediction `json:"predictions"`
	Correct     int          `json:"correct"`
	Accuracy    float64      `json:"accuracy"`
}

// Evaluate predicts the first samplePerLabel books of each label, in input order, and compares against the
// known category. labels defaults to domain.BackfillCategories.
func Evaluate(ctx context.Context, books []domain.Book, predictor Predictor, samplePerLabel int, labels ...string) (*Evaluation, error) {
	if samplePerLabel <= 0 {
		samplePerLabel = DefaultSamplePerLabel
	}
	if len(labels) == 0 {
		labels = domain.BackfillCategories()
	}

	eval := &Evaluation{}
	for _, label := range labels {
		taken := 0
		for i := range books {
			if taken == samplePerLabel {
				break
			}
			if books[i].SimpleCategory != label {
				continue
			}
			taken++

			predicted, err := predictor.PredictCategory(ctx, books[i].Description)
			if err != nil {
				return nil, fmt.Errorf("evaluate %d: %w", books[i].ISBN13, err)
			}
			p := Prediction{ISBN13: books[i].ISBN13, Actual: label, Predicted: predicted, Correct: predicted == label}
			if p.Correct {
				eval.Correct++
			}
			eval.Predictions = append(eval.Predictions, p)
		}
	}

	if n := len(eval.Predictions); n > 0 {
		eval.Accuracy = float64(eval.Correct) / float64(n)
	}
	return eval, nil
}
