package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/readalongapp/readalong-engine/internal/book"
	"github.com/readalongapp/readalong-engine/internal/config"
	"github.com/readalongapp/readalong-engine/internal/library"
	"github.com/readalongapp/readalong-engine/internal/logger"
	"github.com/readalongapp/readalong-engine/internal/search"
	"github.com/readalongapp/readalong-engine/internal/validation"
)

// ProvideLoader provides the artifact loader.
func ProvideLoader(i do.Injector) (*book.Loader, error) {
	validate := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)
	return book.NewLoader(validate, log), nil
}

// SearchIndexHandle wraps the library index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve library index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewIndex(search.Options{
		DataPath: cfg.Data.BasePath,
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}

	return &SearchIndexHandle{Index: index}, nil
}

// ProvideLibraryScanner provides the library scanner. The scanner exists
// even with no library root configured; scanning is simply never triggered.
func ProvideLibraryScanner(i do.Injector) (*library.Scanner, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	loader := do.MustInvoke[*book.Loader](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)

	return library.NewScanner(cfg.Library.Root, loader, indexHandle.Index, log), nil
}

// LibraryWatcherHandle wraps the watcher with lifecycle management. The
// watcher is nil when watching is disabled or no library is configured.
type LibraryWatcherHandle struct {
	Watcher *library.Watcher
	cancel  context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *LibraryWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	h.cancel()
	return h.Watcher.Stop()
}

// ProvideLibraryWatcher provides the running library watcher.
func ProvideLibraryWatcher(i do.Injector) (*LibraryWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	scanner := do.MustInvoke[*library.Scanner](i)

	if !cfg.Library.Watch || cfg.Library.Root == "" {
		log.Info("Library watching disabled")
		return &LibraryWatcherHandle{}, nil
	}

	w, err := library.NewWatcher(scanner, library.WatchOptions{}, log)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := w.Start(ctx); err != nil {
			log.WithError(err).Warn("library watcher stopped")
		}
	}()

	log.Info("Library watcher started", "root", cfg.Library.Root)

	return &LibraryWatcherHandle{Watcher: w, cancel: cancel}, nil
}
