package emotion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/listenupapp/bookrec/internal/domain"
	domainerrors "github.com/listenupapp/bookrec/internal/errors"
)

const progressEvery = 100

// Classifier scores a batch of sentences; one inner slice per input sentence, in input order.
type Classifier interface {
	ClassifyEmotions(ctx context.Context, sentences []string) ([][]LabelScore, error)
}

// Analyzer runs the classifier over every book and merges the aggregated scores back by isbn13.
type Analyzer struct {
	classifier Classifier
	aggregator *Aggregator
	logger     *slog.Logger
}

// NewAnalyzer creates an analyzer. A nil logger discards output.
func NewAnalyzer(classifier Classifier, aggregator *Aggregator, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{classifier: classifier, aggregator: aggregator, logger: logger}
}

// WithLogger returns a copy of the analyzer that logs to logger, e.g. one tagged with a run id.
func (a *Analyzer) WithLogger(logger *slog.Logger) *Analyzer {
	if logger == nil {
		return a
	}
	c := *a
	c.logger = logger
	return &c
}

// Analyze returns a copy of books with Emotions set on every row.
//
// The classifier is called once per book with all of that book's sentences. Its label vocabulary is
// checked against the aggregator's label set on the first response of the run.
func (a *Analyzer) Analyze(ctx context.Context, books []domain.Book) ([]domain.Book, error) {
	if err := domain.CheckUniqueISBNs(books); err != nil {
		return nil, err
	}

	scored := make(map[int64]domain.EmotionScores, len(books))
	validated := false

	for i := range books {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b := &books[i]

		sentences := SplitSentences(b.Description)
		if len(sentences) == 0 {
			return nil, domainerrors.Preconditionf("book %d has no sentences to score", b.ISBN13)
		}

		results, err := a.classifier.ClassifyEmotions(ctx, sentences)
		if err != nil {
			return nil, fmt.Errorf("classify emotions for %d: %w", b.ISBN13, err)
		}
		if len(results) != len(sentences) {
			return nil, domainerrors.Internalf("classifier returned %d results for %d sentences", len(results), len(sentences))
		}

		if !validated {
			if err := a.aggregator.ValidateVocabulary(vocabulary(results[0])); err != nil {
				return nil, err
			}
			validated = true
		}

		scores, err := a.aggregator.Aggregate(results)
		if err != nil {
			return nil, fmt.Errorf("aggregate emotions for %d: %w", b.ISBN13, err)
		}
		scored[b.ISBN13] = scores

		if (i+1)%progressEvery == 0 {
			a.logger.Info("emotion progress", "done", i+1, "total", len(books))
		}
	}

	out := domain.CloneBooks(books)
	for i := range out {
		out[i].Emotions = scored[out[i].ISBN13]
	}
	a.logger.Info("emotions scored", "books", len(out))
	return out, nil
}

func vocabulary(sentence []LabelScore) []string {
	out := make([]string, len(sentence))
	for i, ls := range sentence {
		out[i] = ls.Label
	}
	return out
}
