package book

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/readalongapp/readalong-engine/internal/errors"
)

// Source abstracts where a book's artifacts live. Artifact names (timing,
// text, audio files) are resolved relative to the book's base location.
type Source interface {
	// Artifact returns the raw bytes of a named artifact, e.g.
	// "manifest.json" or "timing.json".
	Artifact(ctx context.Context, name string) ([]byte, error)
	// AudioReader opens a named audio file for streaming.
	AudioReader(ctx context.Context, name string) (io.ReadCloser, error)
}

// FSSource serves artifacts from a book directory on disk.
type FSSource struct {
	dir string
}

// NewFSSource creates a source rooted at the book's output directory.
func NewFSSource(dir string) *FSSource {
	return &FSSource{dir: dir}
}

// Artifact implements Source.
func (s *FSSource) Artifact(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.FromSlash(name)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Inputf("artifact %s not found", name)
		}
		return nil, errors.Inputf("failed to read artifact %s", name).WithCause(err)
	}
	return data, nil
}

// AudioReader implements Source.
func (s *FSSource) AudioReader(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, filepath.FromSlash(name)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Mediaf("audio file %s not found", name)
		}
		return nil, errors.Mediaf("failed to open audio file %s", name).WithCause(err)
	}
	return f, nil
}

// LocalPath returns the on-disk path of a named file. Used by the audio
// layer to probe metadata without rereading bytes.
func (s *FSSource) LocalPath(name string) string {
	return filepath.Join(s.dir, filepath.FromSlash(name))
}

// HTTPSource fetches artifacts from a base URL, matching the original
// static-file serving layout. No retries; callers decide how to degrade.
type HTTPSource struct {
	base   string
	client *http.Client
}

// NewHTTPSource creates a source for a book served under baseURL.
// A nil client uses http.DefaultClient.
func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{base: baseURL, client: client}
}

// Artifact implements Source.
func (s *HTTPSource) Artifact(ctx context.Context, name string) ([]byte, error) {
	body, err := s.fetch(ctx, name)
	if err != nil {
		return nil, errors.Inputf("failed to fetch artifact %s", name).WithCause(err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Inputf("failed to read artifact %s", name).WithCause(err)
	}
	return data, nil
}

// AudioReader implements Source.
func (s *HTTPSource) AudioReader(ctx context.Context, name string) (io.ReadCloser, error) {
	body, err := s.fetch(ctx, name)
	if err != nil {
		return nil, errors.Mediaf("failed to fetch audio file %s", name).WithCause(err)
	}
	return body, nil
}

func (s *HTTPSource) fetch(ctx context.Context, name string) (io.ReadCloser, error) {
	u, err := url.JoinPath(s.base, name)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, u)
	}
	return resp.Body, nil
}
