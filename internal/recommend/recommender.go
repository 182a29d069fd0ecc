package recommend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/listenupapp/bookrec/internal/domain"
	domainerrors "github.com/listenupapp/bookrec/internal/errors"
)

// DefaultTopK is the number of candidates retrieved when a request does not say.
const DefaultTopK = 5

// Retriever returns the k stored documents most similar to query, most similar first.
type Retriever interface {
	SimilaritySearch(ctx context.Context, query string, k int) ([]domain.Document, error)
}

// Catalog resolves isbn13 values to books. Ids it does not know are omitted from the result.
type Catalog interface {
	GetByISBNs(ctx context.Context, isbns []int64) ([]domain.Book, error)
}

// Request is one recommendation query.
type Request struct {
	Query    string
	Category string
	Emotion  string
	TopK     int
}

// Result holds the filtered books in rank order plus the unfiltered candidate count.
type Result struct {
	Query    string
	Category string
	Emotion  string
	// Raw is the number of distinct catalog books retrieved before filtering.
	Raw   int
	Books []domain.Book
}

// Empty reports whether no book survived filtering.
func (r *Result) Empty() bool {
	return len(r.Books) == 0
}

// Recommender joins retrieved documents back to the catalog and filters them.
type Recommender struct {
	retriever Retriever
	catalog   Catalog
	labels    []domain.Emotion
	logger    *slog.Logger
}

// NewRecommender creates a recommender. labels is the emotion vocabulary accepted by the emotion filter.
func NewRecommender(retriever Retriever, catalog Catalog, labels []domain.Emotion, logger *slog.Logger) *Recommender {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recommender{retriever: retriever, catalog: catalog, labels: labels, logger: logger}
}

// Recommend retrieves the top-k documents for the query, resolves them to books in rank order and applies
// the category and emotion filters. The filter is validated before any retrieval happens.
func (r *Recommender) Recommend(ctx context.Context, req Request) (*Result, error) {
	if req.Query == "" {
		return nil, domainerrors.Validation("query is required")
	}
	filter, err := NewFilter(req.Category, req.Emotion, r.labels)
	if err != nil {
		return nil, err
	}
	topK := req.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	docs, err := r.retriever.SimilaritySearch(ctx, req.Query, topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	ids := RankedISBNs(docs, r.logger)
	books, err := r.catalog.GetByISBNs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup: %w", err)
	}
	books = orderByRank(ids, books, r.logger)

	result := &Result{
		Query:    req.Query,
		Category: displayFilter(req.Category),
		Emotion:  displayFilter(req.Emotion),
		Raw:      len(books),
		Books:    filter.Apply(books),
	}
	r.logger.Debug("recommendations",
		"query", req.Query,
		"retrieved", len(docs),
		"raw", result.Raw,
		"filtered", len(result.Books),
	)
	return result, nil
}

// RankedISBNs parses each document's leading isbn13, keeping the first occurrence of each id.
// Documents without a numeric leading token are skipped.
func RankedISBNs(docs []domain.Document, logger *slog.Logger) []int64 {
	ids := make([]int64, 0, len(docs))
	seen := make(map[int64]struct{}, len(docs))
	for _, d := range docs {
		isbn, err := d.ISBN()
		if err != nil {
			logger.Warn("skipping retrieved document", "error", err)
			continue
		}
		if _, dup := seen[isbn]; dup {
			continue
		}
		seen[isbn] = struct{}{}
		ids = append(ids, isbn)
	}
	return ids
}

// orderByRank arranges books in the order of ids, whatever order the catalog returned them in.
func orderByRank(ids []int64, books []domain.Book, logger *slog.Logger) []domain.Book {
	byID := make(map[int64]domain.Book, len(books))
	for _, b := range books {
		byID[b.ISBN13] = b
	}
	out := make([]domain.Book, 0, len(ids))
	for _, id := range ids {
		b, ok := byID[id]
		if !ok {
			logger.Warn("retrieved isbn13 missing from catalog", "isbn13", id)
			continue
		}
		out = append(out, b)
	}
	return out
}

func displayFilter(v string) string {
	if isAll(v) {
		return domain.FilterAll
	}
	return v
}
