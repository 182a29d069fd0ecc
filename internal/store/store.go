// Package store persists document embeddings in Badger and answers nearest-neighbour queries over them.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dgraph-io/badger/v4"
)

// Store wraps a Badger database instance holding one record per tagged description.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// New opens or creates the vector store at path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup
	return open(opts, logger)
}

func open(opts badger.Options, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	logger.Info("Badger database opened successfully", "path", opts.Dir)
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.logger.Info("Closing Badger database")
	return s.db.Close()
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // Only need keys
		opts.Prefix = []byte(docPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if n%1024 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// Dimension returns the vector dimension fixed by the first write, or 0 for an empty store.
func (s *Store) Dimension() (int, error) {
	dim := 0
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaDimensionKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			dim, err = strconv.Atoi(string(val))
			return err
		})
	})
	if err != nil {
		return 0, fmt.Errorf("read dimension: %w", err)
	}
	return dim, nil
}

// Reset deletes every document and the recorded dimension.
func (s *Store) Reset() error {
	if err := s.db.DropPrefix([]byte(docPrefix), []byte(metaPrefix)); err != nil {
		return fmt.Errorf("drop documents: %w", err)
	}
	s.logger.Info("vector store reset")
	return nil
}
