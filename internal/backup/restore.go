package backup

import (
	"archive/zip"
	"context"
	"encoding/json/v2"
	"io"

	"github.com/readalongapp/readalong-engine/internal/domain"
	"github.com/readalongapp/readalong-engine/internal/errors"
)

// RestoreOptions configures archive restoration.
type RestoreOptions struct {
	// Overwrite replaces existing records unconditionally. Without it,
	// progress merges by recency (the newer UpdatedAt wins) and existing
	// annotation documents are left alone.
	Overwrite bool
}

// RestoreResult reports what a restore changed.
type RestoreResult struct {
	Manifest         *Manifest
	ProgressRestored int
	ProgressSkipped  int
	BookDataRestored int
	BookDataSkipped  int
	SettingsRestored bool
}

// Restore reads an archive and merges its contents into the store.
func (s *Service) Restore(ctx context.Context, path string, opts RestoreOptions) (*RestoreResult, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Inputf("cannot open backup archive %s", path).WithCause(err)
	}
	defer zr.Close()

	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[f.Name] = f
	}

	var manifest Manifest
	if err := readEntry(entries, manifestEntry, &manifest); err != nil {
		return nil, err
	}
	if manifest.Version != FormatVersion {
		return nil, errors.Inputf("unsupported backup format version %s", manifest.Version)
	}

	result := &RestoreResult{Manifest: &manifest}

	var progress []*domain.Progress
	if err := readEntry(entries, progressEntry, &progress); err != nil {
		return nil, err
	}
	for _, p := range progress {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !opts.Overwrite {
			existing, err := s.db.GetProgress(ctx, p.BookID)
			if err == nil && existing.UpdatedAt >= p.UpdatedAt {
				result.ProgressSkipped++
				continue
			}
			if err != nil && !errors.Is(err, errors.ErrNotFound) {
				return nil, errors.Persistencef("check progress %s", p.BookID).WithCause(err)
			}
		}
		if err := s.db.SaveProgress(ctx, p); err != nil {
			return nil, errors.Persistencef("restore progress %s", p.BookID).WithCause(err)
		}
		result.ProgressRestored++
	}

	var bookData []*domain.BookData
	if err := readEntry(entries, bookDataEntry, &bookData); err != nil {
		return nil, err
	}
	for _, d := range bookData {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !opts.Overwrite {
			if _, err := s.db.GetBookData(ctx, d.BookID); err == nil {
				result.BookDataSkipped++
				continue
			} else if !errors.Is(err, errors.ErrNotFound) {
				return nil, errors.Persistencef("check book data %s", d.BookID).WithCause(err)
			}
		}
		if err := s.db.PutBookData(ctx, d); err != nil {
			return nil, errors.Persistencef("restore book data %s", d.BookID).WithCause(err)
		}
		result.BookDataRestored++
	}

	if opts.Overwrite && manifest.IncludesSettings {
		if _, ok := entries[settingsEntry]; ok {
			var settings domain.ReaderSettings
			if err := readEntry(entries, settingsEntry, &settings); err != nil {
				return nil, err
			}
			if err := s.db.UpsertSettings(ctx, &settings); err != nil {
				return nil, errors.Persistence("restore settings").WithCause(err)
			}
			result.SettingsRestored = true
		}
	}

	s.log.Info("restore complete",
		"path", path,
		"progress_restored", result.ProgressRestored,
		"progress_skipped", result.ProgressSkipped,
		"book_data_restored", result.BookDataRestored,
		"book_data_skipped", result.BookDataSkipped,
		"settings_restored", result.SettingsRestored)

	return result, nil
}

func readEntry(entries map[string]*zip.File, name string, dst any) error {
	f, ok := entries[name]
	if !ok {
		return errors.Inputf("backup archive missing %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return errors.Inputf("cannot open archive entry %s", name).WithCause(err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return errors.Inputf("cannot read archive entry %s", name).WithCause(err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errors.Inputf("malformed archive entry %s", name).WithCause(err)
	}
	return nil
}
