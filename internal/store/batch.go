package store

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	domainerrors "github.com/listenupapp/bookrec/internal/errors"
)

// BatchWriter provides efficient bulk write operations using BadgerDB's WriteBatch.
type BatchWriter struct {
	store     *Store
	batch     *badger.WriteBatch
	maxSize   int
	count     int
	written   int
	dimension int
}

// NewBatchWriter creates a batch writer that flushes automatically when maxSize records are pending.
func (s *Store) NewBatchWriter(maxSize int) (*BatchWriter, error) {
	dim, err := s.Dimension()
	if err != nil {
		return nil, err
	}
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &BatchWriter{
		store:     s,
		batch:     s.db.NewWriteBatch(),
		maxSize:   maxSize,
		dimension: dim,
	}, nil
}

// Put adds a record to the batch. Every vector in a store must have the same dimension.
func (b *BatchWriter) Put(ctx context.Context, r Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(r.Vector) == 0 {
		return domainerrors.Validationf("document %d has an empty vector", r.ISBN13)
	}
	if b.dimension == 0 {
		b.dimension = len(r.Vector)
		if err := b.batch.Set([]byte(metaDimensionKey), []byte(strconv.Itoa(b.dimension))); err != nil {
			return fmt.Errorf("batch set dimension: %w", err)
		}
	}
	if len(r.Vector) != b.dimension {
		return domainerrors.Validationf("document %d has dimension %d, store has %d", r.ISBN13, len(r.Vector), b.dimension)
	}

	if err := b.batch.Set(docKey(r.ISBN13), encodeRecord(r)); err != nil {
		return fmt.Errorf("batch set document: %w", err)
	}

	b.count++
	if b.count >= b.maxSize {
		if err := b.Flush(); err != nil {
			return fmt.Errorf("auto flush: %w", err)
		}
	}
	return nil
}

// Flush commits all pending writes in the batch.
func (b *BatchWriter) Flush() error {
	if b.count == 0 {
		return nil
	}

	if err := b.batch.Flush(); err != nil {
		return fmt.Errorf("flush batch: %w", err)
	}

	b.written += b.count
	b.store.logger.LogAttrs(context.Background(), slog.LevelDebug, "batch flushed",
		slog.Int("count", b.count),
		slog.Int("written", b.written),
	)

	b.count = 0
	b.batch = b.store.db.NewWriteBatch()
	return nil
}

// Cancel discards all pending writes in the batch.
func (b *BatchWriter) Cancel() {
	b.batch.Cancel()
}

// Written returns the number of records flushed so far.
func (b *BatchWriter) Written() int {
	return b.written
}
