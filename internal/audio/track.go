// Package audio owns playback output. The engine talks to a Player port;
// two implementations ship: a clock-driven headless player used for tests
// and adapter-driven frontends, and an oto-backed PCM player for real
// output. Track resolution prefers the compressed variant of a chapter's
// audio and falls back to the canonical form.
package audio

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"

	"github.com/simonhull/audiometa"

	"github.com/readalongapp/readalong-engine/internal/book"
	"github.com/readalongapp/readalong-engine/internal/errors"
	"github.com/readalongapp/readalong-engine/internal/logger"
)

// Format is the container format of a resolved track.
type Format string

// Supported formats. The conversion pipeline writes canonical WAV and a
// compressed MP3 variant alongside it.
const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
)

// Track is one chapter's resolved audio, fully read into memory.
// Chapters are minutes long, not hours, so buffering whole files is fine.
type Track struct {
	Ref      string // the reference that actually resolved
	Format   Format
	Data     []byte
	Duration float64 // seconds, from the timing map or probed metadata
}

// Reader returns a fresh reader over the track bytes.
func (t *Track) Reader() io.Reader {
	return bytes.NewReader(t.Data)
}

// Resolver resolves a chapter's audio reference against a book source.
type Resolver struct {
	log *logger.Logger
}

// NewResolver creates a resolver.
func NewResolver(log *logger.Logger) *Resolver {
	return &Resolver{log: log}
}

// Resolve fetches the audio for audioRef, trying the MP3 variant first and
// falling back to the canonical reference. duration is the timing map's
// declared chapter duration, used when metadata probing cannot improve on
// it. Failure of both forms is a media error; the caller degrades to a
// text-only session.
func (r *Resolver) Resolve(ctx context.Context, src book.Source, audioRef string, duration float64) (*Track, error) {
	candidates := []struct {
		ref    string
		format Format
	}{
		{ref: mp3Variant(audioRef), format: FormatMP3},
		{ref: audioRef, format: formatOf(audioRef)},
	}

	var lastErr error
	for _, c := range candidates {
		if c.ref == "" {
			continue
		}
		data, err := r.fetch(ctx, src, c.ref)
		if err != nil {
			lastErr = err
			r.log.Debug("audio candidate unavailable", "ref", c.ref, "error", err)
			continue
		}

		t := &Track{Ref: c.ref, Format: c.format, Data: data, Duration: duration}
		if probed, err := r.probeDuration(ctx, src, c.ref); err == nil && probed > 0 {
			t.Duration = probed
		}
		return t, nil
	}

	return nil, errors.Mediaf("audio unresolvable for %s", audioRef).WithCause(lastErr)
}

// Canonical fetches exactly audioRef, skipping the compressed variant.
// Used when the preferred form fetched fine but the output device could not
// decode it.
func (r *Resolver) Canonical(ctx context.Context, src book.Source, audioRef string, duration float64) (*Track, error) {
	data, err := r.fetch(ctx, src, audioRef)
	if err != nil {
		return nil, errors.Mediaf("audio unresolvable for %s", audioRef).WithCause(err)
	}

	t := &Track{Ref: audioRef, Format: formatOf(audioRef), Data: data, Duration: duration}
	if probed, err := r.probeDuration(ctx, src, audioRef); err == nil && probed > 0 {
		t.Duration = probed
	}
	return t, nil
}

func (r *Resolver) fetch(ctx context.Context, src book.Source, ref string) ([]byte, error) {
	rc, err := src.AudioReader(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// mp3Variant maps "audio/ch01.wav" to "audio/ch01.mp3". A reference that is
// already MP3 has no separate variant.
func mp3Variant(ref string) string {
	ext := path.Ext(ref)
	if strings.EqualFold(ext, ".mp3") || ext == "" {
		return ""
	}
	return strings.TrimSuffix(ref, ext) + ".mp3"
}

func formatOf(ref string) Format {
	if strings.EqualFold(path.Ext(ref), ".mp3") {
		return FormatMP3
	}
	return FormatWAV
}

// LocalPather is implemented by sources whose audio lives on disk, allowing
// metadata probing without copying bytes around.
type LocalPather interface {
	LocalPath(name string) string
}

// probeDuration reads container metadata for a more precise duration than
// the timing map's rounded value. Only possible for on-disk sources.
func (r *Resolver) probeDuration(ctx context.Context, src book.Source, ref string) (float64, error) {
	lp, ok := src.(LocalPather)
	if !ok {
		return 0, errors.Media("source has no local files to probe")
	}

	file, err := audiometa.OpenContext(ctx, lp.LocalPath(ref))
	if err != nil {
		return 0, err
	}
	defer file.Close()

	return file.Audio.Duration.Seconds(), nil
}
