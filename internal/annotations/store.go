// Package annotations manages bookmarks, notes, and highlights for the
// active book. All three kinds live in one consolidated document per book,
// loaded at book open and rewritten as a whole on every mutation.
package annotations

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/readalongapp/readalong-engine/internal/domain"
	"github.com/readalongapp/readalong-engine/internal/errors"
	"github.com/readalongapp/readalong-engine/internal/id"
	"github.com/readalongapp/readalong-engine/internal/logger"
	"github.com/readalongapp/readalong-engine/internal/timing"
)

// Persistence is the document store surface the annotation store needs.
type Persistence interface {
	GetBookData(ctx context.Context, bookID string) (*domain.BookData, error)
	PutBookData(ctx context.Context, data *domain.BookData) error
}

// Clock supplies createdAt timestamps. Injected so tests control time.
type Clock func() time.Time

// Store owns the annotation document for the currently open book.
// Mutations apply in memory first and persist best-effort: a failed write is
// reported but never rolls back the in-memory change.
type Store struct {
	db    Persistence
	clock Clock
	log   *logger.Logger

	book *domain.Book
	data *domain.BookData
}

// New creates a store with no book open.
func New(db Persistence, clock Clock, log *logger.Logger) *Store {
	if clock == nil {
		clock = time.Now
	}
	return &Store{db: db, clock: clock, log: log}
}

// Open loads the annotation document for book, creating an empty one if none
// is persisted. A corrupt or unreadable document falls back to empty rather
// than failing the session.
func (s *Store) Open(ctx context.Context, book *domain.Book) error {
	if book == nil {
		return errors.Validation("cannot open annotations without a book")
	}

	data, err := s.db.GetBookData(ctx, book.ID)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			s.log.WithError(err).Warn("annotation document unreadable, starting empty", "book_id", book.ID)
		}
		data = domain.NewBookData(book.ID)
	}

	s.book = book
	s.data = data
	return nil
}

// Close drops the active book. Pending state is already persisted because
// every mutation writes through.
func (s *Store) Close() {
	s.book = nil
	s.data = nil
}

// Data returns the live annotation document, or nil when no book is open.
func (s *Store) Data() *domain.BookData { return s.data }

// AddBookmark records the playback position at seconds into chapter. The
// chapter title and the sentence being narrated are snapshotted so the
// bookmark stays readable even if the book's artifacts change.
func (s *Store) AddBookmark(ctx context.Context, chapter int, at float64, note string) (*domain.Bookmark, error) {
	ch, err := s.requireChapter(chapter)
	if err != nil {
		return nil, err
	}

	text := ""
	if i := timing.Locate(ch.Entries, at); i >= 0 {
		text = ch.Entries[i].Text
	}

	bm := domain.Bookmark{
		ID:           id.MustGenerate("bm"),
		BookID:       s.book.ID,
		Chapter:      chapter,
		Time:         at,
		ChapterTitle: ch.Title,
		Text:         text,
		Note:         note,
		CreatedAt:    s.clock(),
	}
	s.data.Bookmarks = append(s.data.Bookmarks, bm)
	return &bm, s.persist(ctx)
}

// RemoveBookmark deletes the bookmark with the given id, leaving every other
// record untouched.
func (s *Store) RemoveBookmark(ctx context.Context, bookmarkID string) error {
	if err := s.requireBook(); err != nil {
		return err
	}
	kept := s.data.Bookmarks[:0]
	found := false
	for _, bm := range s.data.Bookmarks {
		if bm.ID == bookmarkID {
			found = true
			continue
		}
		kept = append(kept, bm)
	}
	if !found {
		return errors.NotFoundf("bookmark %s not found", bookmarkID)
	}
	s.data.Bookmarks = kept
	return s.persist(ctx)
}

// AddNote attaches user text to a sentence. The sentence must exist in the
// chapter at creation time.
func (s *Store) AddNote(ctx context.Context, chapter int, sentenceID, selectedText, noteText string) (*domain.Note, error) {
	ch, err := s.requireChapter(chapter)
	if err != nil {
		return nil, err
	}
	if !ch.HasSentence(sentenceID) {
		return nil, errors.Validationf("sentence %s not in chapter %d", sentenceID, chapter)
	}

	n := domain.Note{
		ID:           id.MustGenerate("note"),
		BookID:       s.book.ID,
		Chapter:      chapter,
		SentenceID:   sentenceID,
		SelectedText: selectedText,
		Note:         noteText,
		CreatedAt:    s.clock(),
	}
	s.data.Notes = append(s.data.Notes, n)
	return &n, s.persist(ctx)
}

// RemoveNote deletes the note with the given id.
func (s *Store) RemoveNote(ctx context.Context, noteID string) error {
	if err := s.requireBook(); err != nil {
		return err
	}
	kept := s.data.Notes[:0]
	found := false
	for _, n := range s.data.Notes {
		if n.ID == noteID {
			found = true
			continue
		}
		kept = append(kept, n)
	}
	if !found {
		return errors.NotFoundf("note %s not found", noteID)
	}
	s.data.Notes = kept
	return s.persist(ctx)
}

// AddHighlight colors a sentence. The color must come from the fixed palette
// and the sentence must exist in the chapter at creation time.
func (s *Store) AddHighlight(ctx context.Context, chapter int, sentenceID, text string, color domain.HighlightColor) (*domain.Highlight, error) {
	ch, err := s.requireChapter(chapter)
	if err != nil {
		return nil, err
	}
	if !domain.ValidColor(color) {
		return nil, errors.Validationf("invalid highlight color %q", color)
	}
	if !ch.HasSentence(sentenceID) {
		return nil, errors.Validationf("sentence %s not in chapter %d", sentenceID, chapter)
	}

	h := domain.Highlight{
		ID:         id.MustGenerate("hl"),
		BookID:     s.book.ID,
		Chapter:    chapter,
		SentenceID: sentenceID,
		Text:       text,
		Color:      color,
		CreatedAt:  s.clock(),
	}
	s.data.Highlights = append(s.data.Highlights, h)
	return &h, s.persist(ctx)
}

// RemoveHighlight deletes the highlight with the given id.
func (s *Store) RemoveHighlight(ctx context.Context, highlightID string) error {
	if err := s.requireBook(); err != nil {
		return err
	}
	kept := s.data.Highlights[:0]
	found := false
	for _, h := range s.data.Highlights {
		if h.ID == highlightID {
			found = true
			continue
		}
		kept = append(kept, h)
	}
	if !found {
		return errors.NotFoundf("highlight %s not found", highlightID)
	}
	s.data.Highlights = kept
	return s.persist(ctx)
}

// Kind discriminates the annotation kinds in a unified listing.
type Kind string

// Annotation kinds.
const (
	KindBookmark  Kind = "bookmark"
	KindNote      Kind = "note"
	KindHighlight Kind = "highlight"
)

// ListItem is one annotation of any kind, for unified display. Exactly one
// of the three pointers is set, matching Kind.
type ListItem struct {
	Kind      Kind
	ID        string
	Chapter   int
	CreatedAt time.Time

	Bookmark  *domain.Bookmark
	Note      *domain.Note
	Highlight *domain.Highlight
}

// ListForBook returns every annotation of the open book, newest first.
func (s *Store) ListForBook() ([]ListItem, error) {
	if err := s.requireBook(); err != nil {
		return nil, err
	}

	items := make([]ListItem, 0, s.data.Count())
	for i := range s.data.Bookmarks {
		bm := &s.data.Bookmarks[i]
		items = append(items, ListItem{Kind: KindBookmark, ID: bm.ID, Chapter: bm.Chapter, CreatedAt: bm.CreatedAt, Bookmark: bm})
	}
	for i := range s.data.Notes {
		n := &s.data.Notes[i]
		items = append(items, ListItem{Kind: KindNote, ID: n.ID, Chapter: n.Chapter, CreatedAt: n.CreatedAt, Note: n})
	}
	for i := range s.data.Highlights {
		h := &s.data.Highlights[i]
		items = append(items, ListItem{Kind: KindHighlight, ID: h.ID, Chapter: h.Chapter, CreatedAt: h.CreatedAt, Highlight: h})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

// ForChapter returns the open book's annotations limited to one chapter,
// for marker rendering.
func (s *Store) ForChapter(chapter int) (*domain.BookData, error) {
	if err := s.requireBook(); err != nil {
		return nil, err
	}
	return perChapter(s.data, chapter), nil
}

// Export renders the open book's annotations as a human-readable text
// document, grouped by chapter and numbered. Pure function of the stored
// contents.
func (s *Store) Export() (string, error) {
	if err := s.requireBook(); err != nil {
		return "", err
	}
	return Render(s.book, s.data), nil
}

// Render produces the export document for any book/data pair.
func Render(book *domain.Book, data *domain.BookData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", book.Title)
	if book.Author != "" {
		fmt.Fprintf(&b, "by %s\n", book.Author)
	}
	fmt.Fprintf(&b, "\nAnnotations: %d\n", data.Count())

	for ci := 0; ci < book.ChapterCount(); ci++ {
		per := perChapter(data, ci)
		if per.Count() == 0 {
			continue
		}

		title := fmt.Sprintf("Chapter %d", ci+1)
		if ch := book.ChapterAt(ci); ch != nil && ch.Title != "" {
			title = ch.Title
		}
		fmt.Fprintf(&b, "\n== %s ==\n", title)

		for i, bm := range per.Bookmarks {
			fmt.Fprintf(&b, "\nBookmark %d at %s\n  %q\n", i+1, formatTime(bm.Time), bm.Text)
			if bm.Note != "" {
				fmt.Fprintf(&b, "  Note: %s\n", bm.Note)
			}
		}
		for i, h := range per.Highlights {
			fmt.Fprintf(&b, "\nHighlight %d (%s)\n  %q\n", i+1, h.Color, h.Text)
		}
		for i, n := range per.Notes {
			fmt.Fprintf(&b, "\nNote %d\n  %q\n  %s\n", i+1, n.SelectedText, n.Note)
		}
	}
	return b.String()
}

func perChapter(data *domain.BookData, chapter int) *domain.BookData {
	out := domain.NewBookData(data.BookID)
	for _, bm := range data.Bookmarks {
		if bm.Chapter == chapter {
			out.Bookmarks = append(out.Bookmarks, bm)
		}
	}
	for _, n := range data.Notes {
		if n.Chapter == chapter {
			out.Notes = append(out.Notes, n)
		}
	}
	for _, h := range data.Highlights {
		if h.Chapter == chapter {
			out.Highlights = append(out.Highlights, h)
		}
	}
	return out
}

func formatTime(seconds float64) string {
	total := int(seconds)
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func (s *Store) requireBook() error {
	if s.book == nil || s.data == nil {
		return errors.Validation("no book is open")
	}
	return nil
}

func (s *Store) requireChapter(chapter int) (*domain.Chapter, error) {
	if err := s.requireBook(); err != nil {
		return nil, err
	}
	ch := s.book.ChapterAt(chapter)
	if ch == nil {
		return nil, errors.Validationf("chapter %d out of range", chapter)
	}
	return ch, nil
}

// persist rewrites the whole document. Failures are logged and returned but
// the in-memory mutation stands, matching best-effort durability.
func (s *Store) persist(ctx context.Context) error {
	if err := s.db.PutBookData(ctx, s.data); err != nil {
		s.log.WithError(err).Warn("failed to persist annotations", "book_id", s.data.BookID)
		return errors.ErrPersistence.WithMessage("failed to persist annotations").WithCause(err)
	}
	return nil
}
