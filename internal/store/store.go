// Package store persists the engine's documents in a Badger key-value
// database. One logical document per key: playback progress, the per-book
// annotation document, and the reader settings document.
package store

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/readalongapp/readalong-engine/internal/logger"
)

// Store wraps a Badger database instance.
type Store struct {
	db  *badger.DB
	log *logger.Logger
}

// New creates a new Store instance at the given database path.
func New(path string, log *logger.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if log != nil {
		log.Info("badger database opened", "path", path)
	}

	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
