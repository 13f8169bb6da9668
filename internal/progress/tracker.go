// Package progress persists and restores playback positions.
package progress

import (
	"context"
	"sync"
	"time"

	"github.com/readalongapp/readalong-engine/internal/domain"
	"github.com/readalongapp/readalong-engine/internal/errors"
	"github.com/readalongapp/readalong-engine/internal/logger"
	"github.com/readalongapp/readalong-engine/internal/ratelimit"
)

// Store is the persistence surface the tracker needs.
type Store interface {
	SaveProgress(ctx context.Context, p *domain.Progress) error
	GetProgress(ctx context.Context, bookID string) (*domain.Progress, error)
	DeleteProgress(ctx context.Context, bookID string) error
}

// Tracker records playback positions with a per-book write budget. The tick
// pipeline already bounds the call cadence; the limiter guards against a
// misbehaving caller hammering the store. Skipped writes are kept as pending
// and flushed on demand, so the last position always wins.
type Tracker struct {
	store   Store
	limiter *ratelimit.KeyedRateLimiter
	log     *logger.Logger

	mu      sync.Mutex
	pending map[string]*domain.Progress
}

// NewTracker creates a tracker writing through at most once per second per
// book, with a small burst for restore-then-save sequences.
func NewTracker(store Store, log *logger.Logger) *Tracker {
	return &Tracker{
		store:   store,
		limiter: ratelimit.New(1, 2),
		log:     log,
		pending: make(map[string]*domain.Progress),
	}
}

// Save records the position for bookID. If the write budget for the book is
// exhausted the record is held as pending instead of hitting the store.
func (t *Tracker) Save(ctx context.Context, bookID string, chapter int, position float64, now time.Time) error {
	p := domain.NewProgress(bookID, chapter, position, now)

	t.mu.Lock()
	t.pending[bookID] = p
	t.mu.Unlock()

	if !t.limiter.Allow(bookID) {
		return nil
	}
	return t.writePending(ctx, bookID)
}

// Flush forces any pending record for bookID to the store, ignoring the
// write budget. Call on pause, chapter switch, and book close.
func (t *Tracker) Flush(ctx context.Context, bookID string) error {
	return t.writePending(ctx, bookID)
}

func (t *Tracker) writePending(ctx context.Context, bookID string) error {
	t.mu.Lock()
	p, ok := t.pending[bookID]
	if ok {
		delete(t.pending, bookID)
	}
	t.mu.Unlock()

	if !ok {
		return nil
	}
	if err := t.store.SaveProgress(ctx, p); err != nil {
		return errors.ErrPersistence.WithMessage("failed to save progress").WithCause(err)
	}
	return nil
}

// Restore returns the saved position for bookID, or nil if none exists or
// the record is older than the retention window. Stale records are removed.
func (t *Tracker) Restore(ctx context.Context, bookID string, now time.Time) (*domain.Progress, error) {
	p, err := t.store.GetProgress(ctx, bookID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.ErrPersistence.WithMessage("failed to load progress").WithCause(err)
	}

	if p.Stale(now) {
		t.log.Debug("discarding stale progress", "book_id", bookID)
		if err := t.store.DeleteProgress(ctx, bookID); err != nil {
			t.log.WithError(err).Warn("failed to delete stale progress", "book_id", bookID)
		}
		return nil, nil
	}
	return p, nil
}
