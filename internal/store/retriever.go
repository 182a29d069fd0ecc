package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/listenupapp/bookrec/internal/domain"
	domainerrors "github.com/listenupapp/bookrec/internal/errors"
)

// DefaultEmbedBatch is the number of documents sent per embedding request while indexing.
const DefaultEmbedBatch = 32

// Embedder turns texts into vectors, one per text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever answers text queries by embedding them and searching the store.
type Retriever struct {
	embedder Embedder
	store    *Store
}

// NewRetriever creates a retriever over s.
func NewRetriever(embedder Embedder, s *Store) *Retriever {
	return &Retriever{embedder: embedder, store: s}
}

// SimilaritySearch returns the k documents closest to query.
func (r *Retriever) SimilaritySearch(ctx context.Context, query string, k int) ([]domain.Document, error) {
	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, domainerrors.Internalf("embedder returned %d vectors for one query", len(vectors))
	}

	matches, err := r.store.Search(ctx, vectors[0], k)
	if err != nil {
		return nil, err
	}
	docs := make([]domain.Document, len(matches))
	for i, m := range matches {
		docs[i] = domain.Document{Text: m.Text, Score: m.Score}
	}
	return docs, nil
}

// IndexDocuments embeds tagged descriptions in batches and stores them keyed by their leading isbn13.
// Every document is parsed before the first embedding request, so a bad document costs no API calls.
func (s *Store) IndexDocuments(ctx context.Context, embedder Embedder, docs []string, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultEmbedBatch
	}

	ids := make([]int64, len(docs))
	seen := make(map[int64]struct{}, len(docs))
	for i, doc := range docs {
		id, err := domain.ParseISBN(doc)
		if err != nil {
			return 0, fmt.Errorf("document %d: %w", i+1, err)
		}
		if _, dup := seen[id]; dup {
			return 0, domainerrors.Preconditionf("duplicate isbn13 %d", id)
		}
		seen[id] = struct{}{}
		ids[i] = id
	}

	w, err := s.NewBatchWriter(batchSize)
	if err != nil {
		return 0, err
	}
	defer w.Cancel()

	start := time.Now()
	for lo := 0; lo < len(docs); lo += batchSize {
		hi := min(lo+batchSize, len(docs))

		vectors, err := embedder.Embed(ctx, docs[lo:hi])
		if err != nil {
			return w.Written(), fmt.Errorf("embed documents %d-%d: %w", lo+1, hi, err)
		}
		if len(vectors) != hi-lo {
			return w.Written(), domainerrors.Internalf("embedder returned %d vectors for %d documents", len(vectors), hi-lo)
		}
		for j, vec := range vectors {
			if err := w.Put(ctx, Record{ISBN13: ids[lo+j], Text: docs[lo+j], Vector: vec}); err != nil {
				return w.Written(), err
			}
		}
		s.logger.LogAttrs(ctx, slog.LevelInfo, "indexing progress",
			slog.Int("done", hi),
			slog.Int("total", len(docs)),
		)
	}
	if err := w.Flush(); err != nil {
		return w.Written(), err
	}

	s.logger.Info("vector index built", "documents", w.Written(), "duration", time.Since(start))
	return w.Written(), nil
}
