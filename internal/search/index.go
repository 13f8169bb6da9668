package search

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/readalongapp/readalong-engine/internal/logger"
)

// Index wraps a Bleve index over the library catalog.
//
// All public methods are safe for concurrent use. The mutex guards against
// index swaps during rebuilds.
type Index struct {
	index bleve.Index
	path  string
	log   *logger.Logger
	mu    sync.RWMutex
}

// Options configures the library index.
type Options struct {
	DataPath string // directory for index storage
	Logger   *logger.Logger
}

// mappingVersion is bumped whenever the index mapping changes, forcing a
// rebuild on startup when the stored version does not match.
const mappingVersion = "1"

// NewIndex creates or opens the library index at opts.DataPath. A corrupted
// index or one built with an older mapping is removed and recreated; the
// library scanner repopulates it on its next pass.
func NewIndex(opts Options) (*Index, error) {
	log := opts.Logger
	if log == nil {
		log = logger.New(logger.Config{Writer: io.Discard})
	}

	indexPath := filepath.Join(opts.DataPath, "library.bleve")
	versionPath := filepath.Join(opts.DataPath, "library.version")

	var index bleve.Index
	var err error
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		if readErr != nil {
			log.Info("library index has no version file, rebuilding",
				"new_version", mappingVersion)
			needsRebuild = true
		} else if string(existingVersion) != mappingVersion {
			log.Info("library index mapping changed, rebuilding",
				"old_version", string(existingVersion),
				"new_version", mappingVersion)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		index, err = bleve.Open(indexPath)
		if err != nil {
			log.WithError(err).Warn("failed to open library index, recreating",
				"path", indexPath)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	if index == nil {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0644); writeErr != nil {
			log.WithError(writeErr).Warn("failed to write index version file")
		}
		log.Info("created library index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		log.Info("opened library index", "path", indexPath)
	}

	return &Index{
		index: index,
		path:  indexPath,
		log:   log,
	}, nil
}

// Close releases the index.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexDocument indexes one book.
func (s *Index) IndexDocument(doc *Document) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(doc.ID, doc.ToMap())
}

// IndexDocuments indexes books in batches, chunked so a large library scan
// does not build one enormous batch in memory.
func (s *Index) IndexDocuments(docs []*Document) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500

	for i := 0; i < len(docs); i += batchSize {
		end := i + batchSize
		if end > len(docs) {
			end = len(docs)
		}

		batch := s.index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// DeleteDocument removes a book from the index.
func (s *Index) DeleteDocument(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(id)
}

// DocumentCount returns the number of indexed books.
func (s *Index) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops the index and creates a fresh empty one. Blocks all other
// operations while it runs; the caller reindexes afterwards.
func (s *Index) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}

	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.index = index
	s.log.Info("rebuilt library index", "path", s.path)

	return nil
}
