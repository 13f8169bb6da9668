package library

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readalongapp/readalong-engine/internal/book"
	"github.com/readalongapp/readalong-engine/internal/logger"
	"github.com/readalongapp/readalong-engine/internal/search"
	"github.com/readalongapp/readalong-engine/internal/validation"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Writer: io.Discard, Level: logger.ParseLevel("error")})
}

func manifestFor(id, title, author string) string {
	return `{
		"version": "1.0", "bookId": "` + id + `", "title": "` + title + `",
		"author": "` + author + `", "timing": "timing.json", "text": "text.json",
		"totalDuration": 100, "chapterCount": 1,
		"chapters": [{"id": "ch01", "title": "One", "duration": 100, "sentenceCount": 10}],
		"generated": {"voice": "af_heart", "speed": 1.0}
	}`
}

func writeBook(t *testing.T, root, dir, manifest string) string {
	t.Helper()
	bookDir := filepath.Join(root, dir)
	require.NoError(t, os.MkdirAll(bookDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bookDir, book.ManifestName), []byte(manifest), 0o644))
	return bookDir
}

func setupScanner(t *testing.T) (*Scanner, *search.Index, string) {
	t.Helper()

	root := t.TempDir()
	index, err := search.NewIndex(search.Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	log := testLogger()
	scanner := NewScanner(root, book.NewLoader(validation.New(), log), index, log)
	return scanner, index, root
}

func TestScanFindsBooks(t *testing.T) {
	scanner, index, root := setupScanner(t)
	writeBook(t, root, "moby-dick", manifestFor("moby-dick", "Moby Dick", "Herman Melville"))
	writeBook(t, root, "persuasion", manifestFor("persuasion", "Persuasion", "Jane Austen"))

	require.NoError(t, scanner.Scan(context.Background()))

	assert.Len(t, scanner.Books(), 2)
	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	entry, ok := scanner.Lookup("moby-dick")
	require.True(t, ok)
	assert.Equal(t, "Moby Dick", entry.Manifest.Title)
	assert.Equal(t, filepath.Join(root, "moby-dick"), entry.Path)
}

func TestScanSkipsBrokenManifest(t *testing.T) {
	scanner, _, root := setupScanner(t)
	writeBook(t, root, "good", manifestFor("good", "Good Book", "A"))
	writeBook(t, root, "broken", `{"not": "a manifest"`)

	require.NoError(t, scanner.Scan(context.Background()))
	assert.Len(t, scanner.Books(), 1)
}

func TestScanRemovesVanishedBooks(t *testing.T) {
	scanner, index, root := setupScanner(t)
	dir := writeBook(t, root, "ephemeral", manifestFor("ephemeral", "Ephemeral", "A"))
	writeBook(t, root, "keeper", manifestFor("keeper", "Keeper", "B"))

	require.NoError(t, scanner.Scan(context.Background()))
	require.Len(t, scanner.Books(), 2)

	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, scanner.Scan(context.Background()))

	assert.Len(t, scanner.Books(), 1)
	_, ok := scanner.Lookup("ephemeral")
	assert.False(t, ok)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestScanDuplicateIDKeepsFirst(t *testing.T) {
	scanner, _, root := setupScanner(t)
	writeBook(t, root, "a-copy", manifestFor("same-id", "Copy A", "A"))
	writeBook(t, root, "b-copy", manifestFor("same-id", "Copy B", "B"))

	require.NoError(t, scanner.Scan(context.Background()))
	assert.Len(t, scanner.Books(), 1)
}

func TestScanMissingRoot(t *testing.T) {
	log := testLogger()
	scanner := NewScanner("/does/not/exist", book.NewLoader(validation.New(), log), nil, log)
	assert.Error(t, scanner.Scan(context.Background()))
}

func TestScanDirUpdatesSingleBook(t *testing.T) {
	scanner, _, root := setupScanner(t)
	dir := writeBook(t, root, "moby-dick", manifestFor("moby-dick", "Moby Dick", "Herman Melville"))
	require.NoError(t, scanner.Scan(context.Background()))

	require.NoError(t, os.WriteFile(filepath.Join(dir, book.ManifestName),
		[]byte(manifestFor("moby-dick", "Moby Dick, Revised", "Herman Melville")), 0o644))
	require.NoError(t, scanner.ScanDir(context.Background(), dir))

	entry, ok := scanner.Lookup("moby-dick")
	require.True(t, ok)
	assert.Equal(t, "Moby Dick, Revised", entry.Manifest.Title)
}

func TestScanDirRemovesDeletedBook(t *testing.T) {
	scanner, index, root := setupScanner(t)
	dir := writeBook(t, root, "moby-dick", manifestFor("moby-dick", "Moby Dick", "Herman Melville"))
	require.NoError(t, scanner.Scan(context.Background()))

	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, scanner.ScanDir(context.Background(), dir))

	_, ok := scanner.Lookup("moby-dick")
	assert.False(t, ok)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestWatcherPicksUpNewBook(t *testing.T) {
	scanner, _, root := setupScanner(t)
	require.NoError(t, scanner.Scan(context.Background()))

	w, err := NewWatcher(scanner, WatchOptions{SettleDelay: 50 * time.Millisecond}, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()
	defer func() { _ = w.Stop() }()

	// Give the watcher a moment to establish watches.
	time.Sleep(100 * time.Millisecond)

	writeBook(t, root, "new-arrival", manifestFor("new-arrival", "New Arrival", "C"))

	require.Eventually(t, func() bool {
		_, ok := scanner.Lookup("new-arrival")
		return ok
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatchOptionsIgnore(t *testing.T) {
	var opts WatchOptions
	opts.setDefaults()

	assert.True(t, opts.shouldIgnore("/library/.git/config"))
	assert.True(t, opts.shouldIgnore("/library/book/manifest.tmp"))
	assert.True(t, opts.shouldIgnore("/library/.DS_Store"))
	assert.False(t, opts.shouldIgnore("/library/book/manifest.json"))
}
