package store

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	domainerrors "github.com/listenupapp/bookrec/internal/errors"
)

// Match is one search hit.
type Match struct {
	ISBN13 int64
	Text   string
	// Score is the cosine similarity to the query vector, in [-1, 1].
	Score float64
}

// Search returns the k stored documents most similar to query by cosine similarity,
// most similar first. Equal scores are ordered by isbn13 ascending.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]Match, error) {
	if k <= 0 {
		return nil, domainerrors.Validationf("k must be positive, got %d", k)
	}
	if len(query) == 0 {
		return nil, domainerrors.Validation("query vector is empty")
	}

	queryNorm := norm(query)
	var matches []Match

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(docPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		vec := make([]float32, 0, len(query))
		n := 0
		for it.Rewind(); it.Valid(); it.Next() {
			if n%1024 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			n++

			item := it.Item()
			isbn, err := isbnFromKey(item.Key())
			if err != nil {
				return fmt.Errorf("bad key %q: %w", item.Key(), err)
			}
			err = item.Value(func(val []byte) error {
				vec, err = decodeVector(val, vec)
				if err != nil {
					return fmt.Errorf("document %d: %w", isbn, err)
				}
				if len(vec) != len(query) {
					return domainerrors.Validationf("query has dimension %d, store has %d", len(query), len(vec))
				}
				matches = append(matches, Match{ISBN13: isbn, Score: cosine(query, vec, queryNorm)})
				return nil
			})
			if err != nil {
				return err
			}
		}

		slices.SortFunc(matches, func(a, b Match) int {
			if c := cmp.Compare(b.Score, a.Score); c != 0 {
				return c
			}
			return cmp.Compare(a.ISBN13, b.ISBN13)
		})
		if len(matches) > k {
			matches = matches[:k]
		}

		for i := range matches {
			if err := loadText(txn, &matches[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return matches, nil
}

// loadText fills in the stored text of a match. The key is only read, so it comes from the pool.
func loadText(txn *badger.Txn, m *Match) error {
	key := buildKey(docPrefix, strconv.FormatInt(m.ISBN13, 10))
	defer releaseKey(key)

	item, err := txn.Get(key)
	if err != nil {
		return fmt.Errorf("load document %d: %w", m.ISBN13, err)
	}
	return item.Value(func(val []byte) error {
		m.Text = recordText(val)
		return nil
	})
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns the cosine similarity of a and b. A zero vector scores 0.
func cosine(a, b []float32, aNorm float64) float64 {
	var dot, bb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		bb += float64(b[i]) * float64(b[i])
	}
	if aNorm == 0 || bb == 0 {
		return 0
	}
	return dot / (aNorm * math.Sqrt(bb))
}
