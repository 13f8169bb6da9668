package sqlite

import (
	"context"
	"database/sql"
	"encoding/json/v2"
	"fmt"

	"github.com/readalongapp/readalong-engine/internal/domain"
	"github.com/readalongapp/readalong-engine/internal/errors"
	"github.com/readalongapp/readalong-engine/internal/store"
)

// GetProgress retrieves the saved playback position for a book.
// Returns store.ErrProgressNotFound if none exists.
func (s *Store) GetProgress(ctx context.Context, bookID string) (*domain.Progress, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT book_id, chapter, position, updated_at FROM progress WHERE book_id = ?`, bookID)

	var p domain.Progress
	err := row.Scan(&p.BookID, &p.Chapter, &p.Position, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrProgressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan progress: %w", err)
	}
	return &p, nil
}

// SaveProgress creates or overwrites the single progress record for a book.
func (s *Store) SaveProgress(ctx context.Context, p *domain.Progress) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO progress (book_id, chapter, position, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(book_id) DO UPDATE SET
			chapter = excluded.chapter,
			position = excluded.position,
			updated_at = excluded.updated_at`,
		p.BookID, p.Chapter, p.Position, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// DeleteProgress removes the progress record for a book.
func (s *Store) DeleteProgress(ctx context.Context, bookID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM progress WHERE book_id = ?`, bookID); err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	return nil
}

// GetBookData retrieves the consolidated annotation document for a book.
// Returns store.ErrBookDataNotFound if none exists.
func (s *Store) GetBookData(ctx context.Context, bookID string) (*domain.BookData, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT document FROM book_data WHERE book_id = ?`, bookID)

	var raw []byte
	err := row.Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, store.ErrBookDataNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan book data: %w", err)
	}

	var data domain.BookData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, errors.Persistence("corrupt book data document").WithCause(err)
	}
	return &data, nil
}

// PutBookData rewrites the whole annotation document in one statement.
func (s *Store) PutBookData(ctx context.Context, data *domain.BookData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal book data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO book_data (book_id, document) VALUES (?, ?)
		ON CONFLICT(book_id) DO UPDATE SET document = excluded.document`,
		data.BookID, raw)
	if err != nil {
		return fmt.Errorf("put book data: %w", err)
	}
	return nil
}

// DeleteBookData removes a book's annotation document.
func (s *Store) DeleteBookData(ctx context.Context, bookID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM book_data WHERE book_id = ?`, bookID); err != nil {
		return fmt.Errorf("delete book data: %w", err)
	}
	return nil
}

// GetSettings retrieves the reader settings document.
// Returns store.ErrSettingsNotFound if none exists yet.
func (s *Store) GetSettings(ctx context.Context) (*domain.ReaderSettings, error) {
	row := s.db.QueryRowContext(ctx, `SELECT document FROM settings WHERE id = 1`)

	var raw []byte
	err := row.Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, store.ErrSettingsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan settings: %w", err)
	}

	var settings domain.ReaderSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return nil, errors.Persistence("corrupt settings document").WithCause(err)
	}
	return &settings, nil
}

// UpsertSettings creates or updates the reader settings document.
func (s *Store) UpsertSettings(ctx context.Context, settings *domain.ReaderSettings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (id, document) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET document = excluded.document`, raw)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

// GetOrCreateSettings retrieves settings or creates defaults if not found.
func (s *Store) GetOrCreateSettings(ctx context.Context) (*domain.ReaderSettings, error) {
	settings, err := s.GetSettings(ctx)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, store.ErrSettingsNotFound) {
		return nil, err
	}

	settings = domain.NewReaderSettings()
	if err := s.UpsertSettings(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// ListProgress returns every saved progress record.
func (s *Store) ListProgress(ctx context.Context) ([]*domain.Progress, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT book_id, chapter, position, updated_at FROM progress ORDER BY book_id`)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var out []*domain.Progress
	for rows.Next() {
		var p domain.Progress
		if err := rows.Scan(&p.BookID, &p.Chapter, &p.Position, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan progress row: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// ListBookData returns every book's annotation document. Corrupt documents
// are skipped.
func (s *Store) ListBookData(ctx context.Context) ([]*domain.BookData, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document FROM book_data ORDER BY book_id`)
	if err != nil {
		return nil, fmt.Errorf("list book data: %w", err)
	}
	defer rows.Close()

	var out []*domain.BookData
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan book data row: %w", err)
		}
		var data domain.BookData
		if err := json.Unmarshal(raw, &data); err != nil {
			continue
		}
		out = append(out, &data)
	}
	return out, rows.Err()
}
