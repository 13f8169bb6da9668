package book

import (
	"context"
	"encoding/json/v2"

	"github.com/readalongapp/readalong-engine/internal/domain"
	"github.com/readalongapp/readalong-engine/internal/errors"
	"github.com/readalongapp/readalong-engine/internal/logger"
	"github.com/readalongapp/readalong-engine/internal/validation"
)

// ManifestName is the fixed entry-point artifact of every book directory.
const ManifestName = "manifest.json"

// Loader fetches, validates, and merges a book's artifacts.
type Loader struct {
	validate *validation.Validator
	log      *logger.Logger
}

// NewLoader creates a loader.
func NewLoader(validate *validation.Validator, log *logger.Logger) *Loader {
	return &Loader{validate: validate, log: log}
}

// LoadManifest fetches and validates just the manifest.
func (l *Loader) LoadManifest(ctx context.Context, src Source) (*Manifest, error) {
	var m Manifest
	if err := l.artifact(ctx, src, ManifestName, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load fetches all three artifacts and merges them into a domain.Book.
// Timing chapters drive the merge; text chapters are joined by chapter id,
// so a text map with reordered chapters still lands correctly.
func (l *Loader) Load(ctx context.Context, src Source) (*domain.Book, error) {
	manifest, err := l.LoadManifest(ctx, src)
	if err != nil {
		return nil, err
	}

	var timing TimingFile
	if err := l.artifact(ctx, src, manifest.Timing, &timing); err != nil {
		return nil, err
	}

	var text TextFile
	if err := l.artifact(ctx, src, manifest.Text, &text); err != nil {
		return nil, err
	}

	if len(timing.Chapters) != manifest.ChapterCount {
		return nil, errors.Inputf("manifest declares %d chapters but timing map has %d",
			manifest.ChapterCount, len(timing.Chapters))
	}

	textByID := make(map[string]*TextChapter, len(text.Chapters))
	for i := range text.Chapters {
		textByID[text.Chapters[i].ID] = &text.Chapters[i]
	}

	b := &domain.Book{
		ID:            manifest.BookID,
		Title:         manifest.Title,
		Author:        manifest.Author,
		TotalDuration: manifest.TotalDuration,
		Chapters:      make([]domain.Chapter, len(timing.Chapters)),
	}

	for i, tc := range timing.Chapters {
		ch := domain.Chapter{
			Index:    i,
			ID:       tc.ChapterID,
			Title:    tc.Title,
			AudioRef: tc.AudioFile,
			Duration: tc.Duration,
			Entries:  make([]domain.TimingEntry, len(tc.Entries)),
		}
		for j, e := range tc.Entries {
			ch.Entries[j] = domain.TimingEntry{
				ID:        e.ID,
				Start:     e.Start,
				End:       e.End,
				Text:      e.Text,
				Paragraph: e.Paragraph,
			}
		}

		if xc, ok := textByID[tc.ChapterID]; ok {
			ch.Paragraphs = make([]domain.Paragraph, len(xc.Paragraphs))
			for j, p := range xc.Paragraphs {
				dp := domain.Paragraph{
					ID:        p.ID,
					Sentences: make([]domain.Sentence, len(p.Sentences)),
				}
				for k, s := range p.Sentences {
					dp.Sentences[k] = domain.Sentence{ID: s.ID, Text: s.Text}
				}
				ch.Paragraphs[j] = dp
			}
		} else {
			l.log.Warn("chapter has no text map, falling back to timing text",
				"book_id", manifest.BookID, "chapter_id", tc.ChapterID)
		}

		b.Chapters[i] = ch
	}

	l.log.Info("book loaded",
		"book_id", b.ID,
		"chapters", len(b.Chapters),
		"duration_s", b.TotalDuration)
	return b, nil
}

// artifact fetches one artifact, decodes it into dst, and validates it.
func (l *Loader) artifact(ctx context.Context, src Source, name string, dst any) error {
	data, err := src.Artifact(ctx, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errors.Inputf("malformed artifact %s", name).WithCause(err)
	}
	if err := l.validate.Validate(dst); err != nil {
		return errors.Inputf("invalid artifact %s", name).WithCause(err)
	}
	return nil
}
