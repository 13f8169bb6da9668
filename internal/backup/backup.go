// Package backup exports and restores the engine's user data: reading
// progress, annotation documents, and reader settings. Archives are plain
// zip files of JSON documents, so they stay inspectable and survive store
// backend changes (a Badger backup restores into SQLite and vice versa).
package backup

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json/v2"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/readalongapp/readalong-engine/internal/domain"
	"github.com/readalongapp/readalong-engine/internal/errors"
	"github.com/readalongapp/readalong-engine/internal/logger"
)

// FormatVersion is the backup format version. Increment major on breaking
// changes.
const FormatVersion = "1.0"

// Archive entry names.
const (
	manifestEntry = "manifest.json"
	progressEntry = "progress.json"
	bookDataEntry = "bookdata.json"
	settingsEntry = "settings.json"
)

// Store is the persistence surface the backup service needs. Both engine
// store backends satisfy it.
type Store interface {
	ListProgress(ctx context.Context) ([]*domain.Progress, error)
	GetProgress(ctx context.Context, bookID string) (*domain.Progress, error)
	SaveProgress(ctx context.Context, p *domain.Progress) error

	ListBookData(ctx context.Context) ([]*domain.BookData, error)
	GetBookData(ctx context.Context, bookID string) (*domain.BookData, error)
	PutBookData(ctx context.Context, data *domain.BookData) error

	GetSettings(ctx context.Context) (*domain.ReaderSettings, error)
	UpsertSettings(ctx context.Context, s *domain.ReaderSettings) error
}

// Manifest describes archive contents and metadata.
type Manifest struct {
	Version          string    `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	EngineVersion    string    `json:"engine_version"`
	Counts           Counts    `json:"counts"`
	IncludesSettings bool      `json:"includes_settings"`
}

// Counts tracks record counts for validation and reporting.
type Counts struct {
	Progress  int `json:"progress"`
	BookData  int `json:"book_data"`
	Bookmarks int `json:"bookmarks"`
	Notes     int `json:"notes"`
	Highlight int `json:"highlights"`
}

// Options configures backup creation.
type Options struct {
	// OutputPath overrides the generated timestamped path.
	OutputPath string
	// IncludeSettings adds the reader settings document to the archive.
	IncludeSettings bool
}

// Result contains the outcome of a backup operation.
type Result struct {
	Path     string
	Size     int64
	Counts   Counts
	Duration time.Duration
	Checksum string
}

// Service manages backup creation and restoration.
type Service struct {
	db        Store
	backupDir string
	version   string
	log       *logger.Logger
}

// New creates a backup service writing into backupDir.
func New(db Store, backupDir, version string, log *logger.Logger) *Service {
	return &Service{db: db, backupDir: backupDir, version: version, log: log}
}

// Create writes a new backup archive. The archive is written to a temp file
// and renamed into place, so a failed backup leaves nothing behind.
func (s *Service) Create(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()

	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return nil, errors.Persistence("create backup dir").WithCause(err)
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		timestamp := time.Now().Format("2006-01-02-150405")
		outputPath = filepath.Join(s.backupDir, fmt.Sprintf("backup-%s.readalong.zip", timestamp))
	}

	s.log.Info("creating backup", "output", outputPath, "include_settings", opts.IncludeSettings)

	tmpPath := outputPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, errors.Persistence("create backup file").WithCause(err)
	}
	defer os.Remove(tmpPath) // clean up on failure
	defer f.Close()

	hash := sha256.New()
	mw := io.MultiWriter(f, hash)
	zw := zip.NewWriter(mw)

	manifest := &Manifest{
		Version:          FormatVersion,
		CreatedAt:        time.Now(),
		EngineVersion:    s.version,
		IncludesSettings: opts.IncludeSettings,
	}

	progress, err := s.db.ListProgress(ctx)
	if err != nil {
		return nil, errors.Persistence("list progress").WithCause(err)
	}
	if err := writeEntry(zw, progressEntry, progress); err != nil {
		return nil, err
	}
	manifest.Counts.Progress = len(progress)

	bookData, err := s.db.ListBookData(ctx)
	if err != nil {
		return nil, errors.Persistence("list book data").WithCause(err)
	}
	if err := writeEntry(zw, bookDataEntry, bookData); err != nil {
		return nil, err
	}
	manifest.Counts.BookData = len(bookData)
	for _, d := range bookData {
		manifest.Counts.Bookmarks += len(d.Bookmarks)
		manifest.Counts.Notes += len(d.Notes)
		manifest.Counts.Highlight += len(d.Highlights)
	}

	if opts.IncludeSettings {
		settings, err := s.db.GetSettings(ctx)
		if err != nil && !errors.Is(err, errors.ErrNotFound) {
			return nil, errors.Persistence("load settings").WithCause(err)
		}
		if settings != nil {
			if err := writeEntry(zw, settingsEntry, settings); err != nil {
				return nil, err
			}
		}
	}

	// Manifest goes last so it carries final counts.
	if err := writeEntry(zw, manifestEntry, manifest); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, errors.Persistence("close archive").WithCause(err)
	}
	if err := f.Close(); err != nil {
		return nil, errors.Persistence("close backup file").WithCause(err)
	}

	if err := os.Rename(tmpPath, outputPath); err != nil {
		return nil, errors.Persistence("rename backup").WithCause(err)
	}

	info, _ := os.Stat(outputPath)

	result := &Result{
		Path:     outputPath,
		Size:     info.Size(),
		Counts:   manifest.Counts,
		Duration: time.Since(start),
		Checksum: hex.EncodeToString(hash.Sum(nil)),
	}

	s.log.Info("backup complete",
		"path", result.Path, "size", result.Size,
		"duration", result.Duration, "checksum", result.Checksum)

	return result, nil
}

// BackupInfo describes one archive found in the backup directory.
type BackupInfo struct {
	Path      string
	Size      int64
	CreatedAt time.Time
}

// List returns the archives in the backup directory, newest first.
func (s *Service) List() ([]BackupInfo, error) {
	entries, err := os.ReadDir(s.backupDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Persistence("read backup dir").WithCause(err)
	}

	var out []BackupInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".readalong.zip") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, BackupInfo{
			Path:      filepath.Join(s.backupDir, e.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func writeEntry(zw *zip.Writer, name string, v any) error {
	w, err := zw.Create(name)
	if err != nil {
		return errors.Persistencef("create archive entry %s", name).WithCause(err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Persistencef("marshal %s", name).WithCause(err)
	}
	if _, err := w.Write(data); err != nil {
		return errors.Persistencef("write %s", name).WithCause(err)
	}
	return nil
}
