package store

import (
	"context"
	"encoding/json/v2"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/readalongapp/readalong-engine/internal/domain"
	"github.com/readalongapp/readalong-engine/internal/errors"
)

// Reader settings are engine-global, so a fixed key suffices.
const settingsKey = "settings:reader"

// ErrSettingsNotFound is returned when no settings document exists yet.
var ErrSettingsNotFound = errors.ErrNotFound.WithMessage("reader settings not found")

// GetSettings retrieves the reader settings document.
func (s *Store) GetSettings(ctx context.Context) (*domain.ReaderSettings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var settings domain.ReaderSettings

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(settingsKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSettingsNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &settings)
		})
	})

	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpsertSettings creates or updates the reader settings document.
func (s *Store) UpsertSettings(ctx context.Context, settings *domain.ReaderSettings) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(settingsKey), data)
	})
}

// GetOrCreateSettings retrieves settings or creates defaults if not found.
func (s *Store) GetOrCreateSettings(ctx context.Context) (*domain.ReaderSettings, error) {
	settings, err := s.GetSettings(ctx)
	if err == nil {
		return settings, nil
	}

	if !errors.Is(err, ErrSettingsNotFound) {
		return nil, err
	}

	// Create defaults
	settings = domain.NewReaderSettings()
	if err := s.UpsertSettings(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}
