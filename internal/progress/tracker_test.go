package progress

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readalongapp/readalong-engine/internal/domain"
	"github.com/readalongapp/readalong-engine/internal/errors"
	"github.com/readalongapp/readalong-engine/internal/logger"
)

type fakeStore struct {
	records map[string]*domain.Progress
	saves   int
	deletes int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*domain.Progress)}
}

func (s *fakeStore) SaveProgress(_ context.Context, p *domain.Progress) error {
	s.saves++
	s.records[p.BookID] = p
	return nil
}

func (s *fakeStore) GetProgress(_ context.Context, bookID string) (*domain.Progress, error) {
	p, ok := s.records[bookID]
	if !ok {
		return nil, errors.ErrNotFound.WithMessage("progress not found")
	}
	return p, nil
}

func (s *fakeStore) DeleteProgress(_ context.Context, bookID string) error {
	s.deletes++
	delete(s.records, bookID)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Writer: io.Discard, Level: logger.ParseLevel("error")})
}

func TestSaveAndRestore(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	tr := NewTracker(store, testLogger())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, tr.Save(ctx, "moby-dick", 3, 42.5, now))

	p, err := tr.Restore(ctx, "moby-dick", now.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 3, p.Chapter)
	assert.Equal(t, 42.5, p.Position)
}

func TestRestoreMissing(t *testing.T) {
	tr := NewTracker(newFakeStore(), testLogger())

	p, err := tr.Restore(context.Background(), "unknown", time.Now())
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestRestoreStale(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	tr := NewTracker(store, testLogger())
	saved := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, tr.Save(ctx, "moby-dick", 1, 10, saved))

	t.Run("29 days later still restores", func(t *testing.T) {
		p, err := tr.Restore(ctx, "moby-dick", saved.Add(29*24*time.Hour))
		require.NoError(t, err)
		assert.NotNil(t, p)
	})

	t.Run("31 days later is gone", func(t *testing.T) {
		p, err := tr.Restore(ctx, "moby-dick", saved.Add(31*24*time.Hour))
		require.NoError(t, err)
		assert.Nil(t, p)
		assert.Equal(t, 1, store.deletes)
	})
}

func TestSaveRateLimitLastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	tr := NewTracker(store, testLogger())
	now := time.Now()

	// Hammer the tracker far faster than the write budget allows.
	for i := 0; i < 50; i++ {
		require.NoError(t, tr.Save(ctx, "moby-dick", 2, float64(i), now))
	}
	assert.Less(t, store.saves, 50, "limiter should have skipped most writes")

	// Flush pushes the final position through regardless.
	require.NoError(t, tr.Flush(ctx, "moby-dick"))
	assert.Equal(t, 49.0, store.records["moby-dick"].Position)
}

func TestFlushWithoutPending(t *testing.T) {
	store := newFakeStore()
	tr := NewTracker(store, testLogger())
	require.NoError(t, tr.Flush(context.Background(), "moby-dick"))
	assert.Zero(t, store.saves)
}
