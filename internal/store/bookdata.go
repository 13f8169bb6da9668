package store

import (
	"context"
	"encoding/json/v2"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/readalongapp/readalong-engine/internal/domain"
	"github.com/readalongapp/readalong-engine/internal/errors"
)

const bookDataPrefix = "bookdata:"

// ErrBookDataNotFound is returned when a book has no annotation document.
var ErrBookDataNotFound = errors.ErrNotFound.WithMessage("book data not found")

// GetBookData retrieves the consolidated annotation document for a book.
func (s *Store) GetBookData(ctx context.Context, bookID string) (*domain.BookData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := bookDataPrefix + bookID
	var data domain.BookData

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrBookDataNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &data)
		})
	})

	if err != nil {
		return nil, err
	}
	return &data, nil
}

// PutBookData rewrites the whole annotation document in one transaction, so
// readers never observe a partial write.
func (s *Store) PutBookData(ctx context.Context, data *domain.BookData) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := bookDataPrefix + data.BookID
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal book data: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), raw)
	})
}

// DeleteBookData removes a book's annotation document.
func (s *Store) DeleteBookData(ctx context.Context, bookID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := bookDataPrefix + bookID
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// ListBookData returns every book's annotation document.
func (s *Store) ListBookData(ctx context.Context) ([]*domain.BookData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []*domain.BookData
	prefix := []byte(bookDataPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var data domain.BookData
				if unmarshalErr := json.Unmarshal(val, &data); unmarshalErr != nil {
					return nil //nolint:nilerr // skip malformed entries
				}
				out = append(out, &data)
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
