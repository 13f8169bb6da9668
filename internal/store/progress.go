package store

import (
	"context"
	"encoding/json/v2"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/readalongapp/readalong-engine/internal/domain"
	"github.com/readalongapp/readalong-engine/internal/errors"
)

const progressPrefix = "progress:"

// ErrProgressNotFound is returned when no progress is saved for a book.
var ErrProgressNotFound = errors.ErrNotFound.WithMessage("progress not found")

// GetProgress retrieves the saved playback position for a book.
func (s *Store) GetProgress(ctx context.Context, bookID string) (*domain.Progress, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := progressPrefix + bookID
	var p domain.Progress

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrProgressNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		})
	})

	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveProgress creates or overwrites the single progress record for a book.
// Last write wins.
func (s *Store) SaveProgress(ctx context.Context, p *domain.Progress) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := progressPrefix + p.BookID
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// DeleteProgress removes the progress record for a book.
func (s *Store) DeleteProgress(ctx context.Context, bookID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := progressPrefix + bookID
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// ListProgress returns every saved progress record.
func (s *Store) ListProgress(ctx context.Context) ([]*domain.Progress, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []*domain.Progress
	prefix := []byte(progressPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var p domain.Progress
				if unmarshalErr := json.Unmarshal(val, &p); unmarshalErr != nil {
					return nil //nolint:nilerr // skip malformed entries
				}
				out = append(out, &p)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}
