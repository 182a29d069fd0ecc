package category

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/listenupapp/bookrec/internal/domain"
	domainerrors "github.com/listenupapp/bookrec/internal/errors"
)

// progressEvery controls how often Backfill logs progress.
const progressEvery = 100

// Backfill fills every missing SimpleCategory with the predictor's answer and returns a new collection.
//
// Rows that already carry a category keep it and the predictor is called exactly once per missing row.
// isbn13 values must be unique; a duplicate is reported before any prediction is made. Any predictor error
// aborts the whole stage.
func Backfill(ctx context.Context, books []domain.Book, predictor Predictor, logger *slog.Logger) ([]domain.Book, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := domain.CheckUniqueISBNs(books); err != nil {
		return nil, err
	}

	missing := make([]int, 0)
	for i := range books {
		if books[i].HasCategory() {
			continue
		}
		if strings.TrimSpace(books[i].Description) == "" {
			return nil, domainerrors.Preconditionf("book %d needs a category but has no description", books[i].ISBN13)
		}
		missing = append(missing, i)
	}

	out := domain.CloneBooks(books)
	if len(missing) == 0 {
		logger.Info("no missing categories", "books", len(books))
		return out, nil
	}

	logger.Info("backfilling categories", "missing", len(missing), "books", len(books))

	predicted := make(map[int64]string, len(missing))
	for n, i := range missing {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		label, err := predictor.PredictCategory(ctx, books[i].Description)
		if err != nil {
			return nil, fmt.Errorf("predict category for %d: %w", books[i].ISBN13, err)
		}
		predicted[books[i].ISBN13] = label

		if (n+1)%progressEvery == 0 {
			logger.Info("backfill progress", "done", n+1, "total", len(missing))
		}
	}

	for i := range out {
		if out[i].HasCategory() {
			continue
		}
		out[i].SimpleCategory = predicted[out[i].ISBN13]
	}
	return out, nil
}
