package domain

import "time"

// ProgressTTL is the staleness window beyond which a saved playback position
// is discarded on restore.
const ProgressTTL = 30 * 24 * time.Hour

// Progress is the last playback position for a book. Exactly one record
// exists per book; every save overwrites the previous one.
type Progress struct {
	BookID    string  `json:"book_id"`
	Chapter   int     `json:"chapter"`
	Position  float64 `json:"position"`   // seconds into the chapter
	UpdatedAt int64   `json:"updated_at"` // epoch milliseconds
}

// NewProgress creates a progress record stamped with now.
func NewProgress(bookID string, chapter int, position float64, now time.Time) *Progress {
	return &Progress{
		BookID:    bookID,
		Chapter:   chapter,
		Position:  position,
		UpdatedAt: now.UnixMilli(),
	}
}

// Stale reports whether the record is older than the TTL at the given time.
func (p *Progress) Stale(now time.Time) bool {
	return now.Sub(time.UnixMilli(p.UpdatedAt)) > ProgressTTL
}
