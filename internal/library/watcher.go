package library

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/readalongapp/readalong-engine/internal/book"
	"github.com/readalongapp/readalong-engine/internal/errors"
	"github.com/readalongapp/readalong-engine/internal/logger"
)

// WatchOptions configures the library watcher.
type WatchOptions struct {
	// SettleDelay is how long a manifest must stop changing before its
	// directory is rescanned. The conversion pipeline writes artifacts
	// incrementally, so reacting to the first write would index a
	// half-written book.
	SettleDelay time.Duration

	IgnorePatterns []string
	IgnoreHidden   bool
}

func (o *WatchOptions) setDefaults() {
	if o.SettleDelay == 0 {
		o.SettleDelay = 500 * time.Millisecond
	}
	if o.IgnorePatterns == nil {
		o.IgnorePatterns = []string{
			".DS_Store",
			"*.tmp",
			"*.partial",
			"Thumbs.db",
		}
		o.IgnoreHidden = true
	}
}

func (o *WatchOptions) shouldIgnore(path string) bool {
	if o.IgnoreHidden {
		parts := strings.Split(filepath.Clean(path), string(filepath.Separator))
		for _, part := range parts {
			if strings.HasPrefix(part, ".") && part != "." && part != ".." {
				return true
			}
		}
	}

	base := filepath.Base(path)
	for _, pattern := range o.IgnorePatterns {
		matched, err := filepath.Match(pattern, base)
		if err == nil && matched {
			return true
		}
	}

	return false
}

// pendingDir tracks a book directory whose manifest may still be changing.
type pendingDir struct {
	size    int64
	modTime time.Time
	timer   *time.Timer
}

// Watcher monitors the library root and rescans book directories whose
// manifest settles. Remove events rescan too; ScanDir resolves them to
// catalog removals.
type Watcher struct {
	scanner *Scanner
	opts    WatchOptions
	log     *logger.Logger
	fsw     *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*pendingDir // manifest path -> settle state

	dirty chan string // settled book directories
	done  chan struct{}
	wg    sync.WaitGroup
}

// NewWatcher creates a watcher feeding the scanner.
func NewWatcher(scanner *Scanner, opts WatchOptions, log *logger.Logger) (*Watcher, error) {
	opts.setDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to create fsnotify watcher")
	}

	return &Watcher{
		scanner: scanner,
		opts:    opts,
		log:     log,
		fsw:     fsw,
		pending: make(map[string]*pendingDir),
		dirty:   make(chan string, 100),
		done:    make(chan struct{}),
	}, nil
}

// Start watches the library root until ctx is cancelled. Blocks.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watchTree(w.scanner.root); err != nil {
		return err
	}

	w.wg.Add(2)
	go w.processEvents(ctx)
	go w.processDirty(ctx)

	<-ctx.Done()
	return nil
}

// Stop releases the watcher.
func (w *Watcher) Stop() error {
	close(w.done)

	w.mu.Lock()
	for _, p := range w.pending {
		p.timer.Stop()
	}
	clear(w.pending)
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

// watchTree adds watches for root and every subdirectory.
func (w *Watcher) watchTree(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			w.log.WithError(err).Warn("cannot access path", "path", path)
			return nil
		}
		if w.opts.shouldIgnore(path) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			w.log.WithError(err).Warn("failed to add watch", "path", path)
			return nil
		}
		w.log.Debug("watching", "path", path)
		return nil
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("watch error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	if w.opts.shouldIgnore(path) {
		return
	}

	// New subdirectories join the watch set. The directory is marked dirty
	// too: a manifest written before the watch was established produced no
	// event of its own.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.watchTree(path); err != nil {
				w.log.WithError(err).Warn("failed to watch new directory", "path", path)
			}
			if _, err := os.Stat(filepath.Join(path, book.ManifestName)); err == nil {
				w.markDirty(path)
			}
			return
		}
	}

	// Only manifest churn matters; audio and map files always land before
	// the manifest in the pipeline's write order.
	if filepath.Base(path) != book.ManifestName {
		return
	}

	if event.Op&fsnotify.Remove != 0 {
		w.cancelPending(path)
		w.markDirty(filepath.Dir(path))
		return
	}

	if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
		w.startSettling(path)
	}
}

// startSettling arms (or re-arms) the settle timer for a manifest.
func (w *Watcher) startSettling(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, exists := w.pending[path]; exists {
		p.timer.Stop()
	}

	info, err := os.Stat(path)
	if err != nil {
		w.log.WithError(err).Warn("failed to stat manifest", "path", path)
		delete(w.pending, path)
		return
	}

	p := &pendingDir{size: info.Size(), modTime: info.ModTime()}
	p.timer = time.AfterFunc(w.opts.SettleDelay, func() {
		w.checkSettled(path)
	})
	w.pending[path] = p
}

// checkSettled fires after the settle delay; an unchanged manifest marks
// its directory dirty, a still-changing one re-arms the timer.
func (w *Watcher) checkSettled(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, exists := w.pending[path]
	if !exists {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		delete(w.pending, path)
		w.markDirty(filepath.Dir(path))
		return
	}

	if info.Size() != p.size || !info.ModTime().Equal(p.modTime) {
		p.size = info.Size()
		p.modTime = info.ModTime()
		p.timer = time.AfterFunc(w.opts.SettleDelay, func() {
			w.checkSettled(path)
		})
		return
	}

	delete(w.pending, path)
	w.markDirty(filepath.Dir(path))
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p, exists := w.pending[path]; exists {
		p.timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) markDirty(dir string) {
	select {
	case w.dirty <- dir:
	case <-w.done:
	}
}

// processDirty rescans settled directories one at a time.
func (w *Watcher) processDirty(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case dir := <-w.dirty:
			if err := w.scanner.ScanDir(ctx, dir); err != nil {
				w.log.WithError(err).Warn("rescan failed", "dir", dir)
			}
		}
	}
}
