// Package library maintains the catalog of generated books under a library
// root. A scan walks the root for book directories (any directory holding a
// manifest.json), validates each manifest, and syncs the search index; a
// watcher keeps the catalog current as the conversion pipeline writes new
// books.
package library

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/readalongapp/readalong-engine/internal/book"
	"github.com/readalongapp/readalong-engine/internal/errors"
	"github.com/readalongapp/readalong-engine/internal/logger"
	"github.com/readalongapp/readalong-engine/internal/search"
)

// Entry is one scanned book.
type Entry struct {
	Manifest *book.Manifest
	Path     string // directory holding the book's artifacts
}

// Scanner walks a library root and syncs the search index with what it
// finds.
type Scanner struct {
	root   string
	loader *book.Loader
	index  *search.Index
	log    *logger.Logger
	clock  func() time.Time

	mu      sync.RWMutex
	entries map[string]Entry // book id -> latest scan result
}

// NewScanner creates a scanner over root. index may be nil; scanning then
// only maintains the in-memory catalog.
func NewScanner(root string, loader *book.Loader, index *search.Index, log *logger.Logger) *Scanner {
	return &Scanner{
		root:    root,
		loader:  loader,
		index:   index,
		log:     log,
		clock:   time.Now,
		entries: make(map[string]Entry),
	}
}

// Scan walks the library root once. Books whose manifest fails to load are
// logged and skipped; books that disappeared since the previous scan are
// removed from the index.
func (s *Scanner) Scan(ctx context.Context) error {
	if _, err := os.Stat(s.root); err != nil {
		return errors.Inputf("library root %s not accessible", s.root).WithCause(err)
	}

	found := make(map[string]Entry)
	var docs []*search.Document

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.log.WithError(err).Warn("cannot access library path", "path", path)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || d.Name() != book.ManifestName {
			return nil
		}

		dir := filepath.Dir(path)
		entry, err := s.loadDir(ctx, dir)
		if err != nil {
			s.log.WithError(err).Warn("skipping unreadable book", "dir", dir)
			return nil
		}

		if prev, dup := found[entry.Manifest.BookID]; dup {
			s.log.Warn("duplicate book id in library, keeping first",
				"book_id", entry.Manifest.BookID, "kept", prev.Path, "skipped", dir)
			return nil
		}

		found[entry.Manifest.BookID] = entry
		docs = append(docs, search.FromManifest(entry.Manifest, dir, s.clock().UnixMilli()))
		return nil
	})
	if err != nil {
		return err
	}

	// Books gone since the last scan leave the index.
	s.mu.Lock()
	var removed []string
	for id := range s.entries {
		if _, ok := found[id]; !ok {
			removed = append(removed, id)
		}
	}
	s.entries = found
	s.mu.Unlock()

	if s.index != nil {
		if err := s.index.IndexDocuments(docs); err != nil {
			return errors.Wrap(err, errors.CodeInternal, "failed to index library")
		}
		for _, id := range removed {
			if err := s.index.DeleteDocument(id); err != nil {
				s.log.WithError(err).Warn("failed to remove book from index", "book_id", id)
			}
		}
	}

	s.log.Info("library scan complete",
		"books", len(found), "removed", len(removed), "root", s.root)
	return nil
}

// ScanDir re-reads a single book directory, updating the catalog and index.
// A directory whose manifest vanished is treated as a removed book.
func (s *Scanner) ScanDir(ctx context.Context, dir string) error {
	entry, err := s.loadDir(ctx, dir)
	if err != nil {
		if removedID := s.dropByPath(dir); removedID != "" {
			if s.index != nil {
				if derr := s.index.DeleteDocument(removedID); derr != nil {
					s.log.WithError(derr).Warn("failed to remove book from index", "book_id", removedID)
				}
			}
			s.log.Info("book removed from library", "book_id", removedID, "dir", dir)
			return nil
		}
		return err
	}

	s.mu.Lock()
	s.entries[entry.Manifest.BookID] = entry
	s.mu.Unlock()

	if s.index != nil {
		doc := search.FromManifest(entry.Manifest, dir, s.clock().UnixMilli())
		if err := s.index.IndexDocument(doc); err != nil {
			return errors.Wrap(err, errors.CodeInternal, "failed to index book")
		}
	}

	s.log.Info("book indexed", "book_id", entry.Manifest.BookID, "dir", dir)
	return nil
}

// Books returns the current catalog snapshot.
func (s *Scanner) Books() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out
}

// Lookup finds a scanned book by id.
func (s *Scanner) Lookup(bookID string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[bookID]
	return e, ok
}

func (s *Scanner) loadDir(ctx context.Context, dir string) (Entry, error) {
	m, err := s.loader.LoadManifest(ctx, book.NewFSSource(dir))
	if err != nil {
		return Entry{}, err
	}
	return Entry{Manifest: m, Path: dir}, nil
}

// dropByPath removes the catalog entry living at dir, returning its book id.
func (s *Scanner) dropByPath(dir string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		if e.Path == dir {
			delete(s.entries, id)
			return id
		}
	}
	return ""
}
