package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readalongapp/readalong-engine/internal/domain"
	"github.com/readalongapp/readalong-engine/internal/store"
	"github.com/readalongapp/readalong-engine/internal/store/sqlite"
)

func setupSQLiteStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.Open(filepath.Join(t.TempDir(), "engine.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteProgressCRUD(t *testing.T) {
	s := setupSQLiteStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := s.GetProgress(ctx, "moby-dick")
	assert.ErrorIs(t, err, store.ErrProgressNotFound)

	require.NoError(t, s.SaveProgress(ctx, domain.NewProgress("moby-dick", 2, 37.25, now)))

	p, err := s.GetProgress(ctx, "moby-dick")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Chapter)
	assert.Equal(t, 37.25, p.Position)
	assert.Equal(t, now.UnixMilli(), p.UpdatedAt)

	// Upsert overwrites in place.
	require.NoError(t, s.SaveProgress(ctx, domain.NewProgress("moby-dick", 5, 0, now.Add(time.Hour))))
	p, err = s.GetProgress(ctx, "moby-dick")
	require.NoError(t, err)
	assert.Equal(t, 5, p.Chapter)

	require.NoError(t, s.DeleteProgress(ctx, "moby-dick"))
	_, err = s.GetProgress(ctx, "moby-dick")
	assert.ErrorIs(t, err, store.ErrProgressNotFound)
}

func TestSQLiteBookDataRoundTrip(t *testing.T) {
	s := setupSQLiteStore(t)
	ctx := context.Background()

	data := domain.NewBookData("moby-dick")
	data.Notes = append(data.Notes, domain.Note{
		ID:           "note_test1",
		BookID:       "moby-dick",
		Chapter:      0,
		SentenceID:   "ch01_s0000",
		SelectedText: "Call me Ishmael.",
		Note:         "famous opening",
		CreatedAt:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, s.PutBookData(ctx, data))

	retrieved, err := s.GetBookData(ctx, "moby-dick")
	require.NoError(t, err)
	require.Len(t, retrieved.Notes, 1)
	assert.Equal(t, "famous opening", retrieved.Notes[0].Note)
	assert.True(t, retrieved.Notes[0].CreatedAt.Equal(data.Notes[0].CreatedAt))
}

func TestSQLiteListDocuments(t *testing.T) {
	s := setupSQLiteStore(t)
	ctx := context.Background()
	now := time.Now()

	progress, err := s.ListProgress(ctx)
	require.NoError(t, err)
	assert.Empty(t, progress)

	require.NoError(t, s.SaveProgress(ctx, domain.NewProgress("moby-dick", 2, 37.25, now)))
	require.NoError(t, s.SaveProgress(ctx, domain.NewProgress("persuasion", 0, 1.0, now)))
	require.NoError(t, s.PutBookData(ctx, domain.NewBookData("moby-dick")))

	progress, err = s.ListProgress(ctx)
	require.NoError(t, err)
	require.Len(t, progress, 2)
	assert.Equal(t, "moby-dick", progress[0].BookID)

	data, err := s.ListBookData(ctx)
	require.NoError(t, err)
	assert.Len(t, data, 1)
}

func TestSQLiteSettingsSingleRow(t *testing.T) {
	s := setupSQLiteStore(t)
	ctx := context.Background()

	settings, err := s.GetOrCreateSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "light", settings.Theme)

	settings.Theme = "dark"
	settings.FontSize = 22
	require.NoError(t, s.UpsertSettings(ctx, settings))

	retrieved, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dark", retrieved.Theme)
	assert.Equal(t, 22, retrieved.FontSize)
}
