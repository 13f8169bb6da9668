package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readalongapp/readalong-engine/internal/errors"
	"github.com/readalongapp/readalong-engine/internal/logger"
)

// fakeSource serves audio from a map, standing in for a book directory.
type fakeSource struct {
	files map[string][]byte
}

func (s *fakeSource) Artifact(_ context.Context, name string) ([]byte, error) {
	data, ok := s.files[name]
	if !ok {
		return nil, errors.Inputf("artifact %s not found", name)
	}
	return data, nil
}

func (s *fakeSource) AudioReader(_ context.Context, name string) (io.ReadCloser, error) {
	data, ok := s.files[name]
	if !ok {
		return nil, errors.Mediaf("audio file %s not found", name)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func testResolver() *Resolver {
	return NewResolver(logger.New(logger.Config{Writer: io.Discard, Level: logger.ParseLevel("error")}))
}

func TestResolvePrefersMP3(t *testing.T) {
	src := &fakeSource{files: map[string][]byte{
		"audio/ch01.mp3": []byte("mp3bytes"),
		"audio/ch01.wav": []byte("wavbytes"),
	}}

	track, err := testResolver().Resolve(context.Background(), src, "audio/ch01.wav", 120)
	require.NoError(t, err)
	assert.Equal(t, "audio/ch01.mp3", track.Ref)
	assert.Equal(t, FormatMP3, track.Format)
	assert.Equal(t, []byte("mp3bytes"), track.Data)
	assert.Equal(t, 120.0, track.Duration)
}

func TestResolveFallsBackToWAV(t *testing.T) {
	src := &fakeSource{files: map[string][]byte{
		"audio/ch01.wav": []byte("wavbytes"),
	}}

	track, err := testResolver().Resolve(context.Background(), src, "audio/ch01.wav", 120)
	require.NoError(t, err)
	assert.Equal(t, "audio/ch01.wav", track.Ref)
	assert.Equal(t, FormatWAV, track.Format)
}

func TestResolveBothMissing(t *testing.T) {
	src := &fakeSource{files: map[string][]byte{}}

	_, err := testResolver().Resolve(context.Background(), src, "audio/ch01.wav", 120)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMedia))
}

func TestMP3Variant(t *testing.T) {
	assert.Equal(t, "audio/ch01.mp3", mp3Variant("audio/ch01.wav"))
	assert.Equal(t, "", mp3Variant("audio/ch01.mp3"), "mp3 refs have no separate variant")
	assert.Equal(t, "", mp3Variant("audio/ch01"))
}

// buildWAV assembles a minimal 16-bit PCM file with n sample frames.
func buildWAV(t *testing.T, sampleRate, channels, frames int) []byte {
	t.Helper()

	pcm := make([]byte, frames*channels*2)
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}

func TestParseWAV(t *testing.T) {
	data := buildWAV(t, 44100, 1, 441)

	wav, err := parseWAV(data)
	require.NoError(t, err)
	assert.Equal(t, 44100, wav.spec.sampleRate)
	assert.Equal(t, 1, wav.spec.channels)
	assert.Equal(t, 16, wav.spec.bitDepth)
	assert.Len(t, wav.pcm, 441*2)
}

func TestParseWAVRejectsGarbage(t *testing.T) {
	_, err := parseWAV([]byte("not a wav"))
	assert.True(t, errors.Is(err, errors.ErrMedia))

	_, err = parseWAV([]byte("RIFF\x00\x00\x00\x00JUNK"))
	assert.True(t, errors.Is(err, errors.ErrMedia))
}

func TestClockPlayerAdvancesWithSpeed(t *testing.T) {
	p := NewClockPlayer(time.Millisecond)
	require.NoError(t, p.Load(&Track{Ref: "audio/ch01.wav", Format: FormatWAV, Duration: 600}))

	require.NoError(t, p.SetSpeed(2.0))
	base := time.Now()
	p.mu.Lock()
	p.playing = true
	p.lastStep = base
	p.advanceLocked(base.Add(3 * time.Second))
	p.mu.Unlock()

	assert.InDelta(t, 6.0, p.position, 0.001, "3s wall clock at 2.0x")
}

func TestClockPlayerEndsAtDuration(t *testing.T) {
	p := NewClockPlayer(time.Millisecond)
	require.NoError(t, p.Load(&Track{Ref: "audio/ch01.wav", Format: FormatWAV, Duration: 10}))

	p.mu.Lock()
	p.playing = true
	p.lastStep = time.Now().Add(-time.Minute) // well past the end
	p.mu.Unlock()

	pos, ended := p.step(time.Now())
	assert.True(t, ended)
	assert.Equal(t, 10.0, pos, "position clamps at duration")
	assert.False(t, p.playing)
}

func TestClockPlayerSeekAndPauseKeepPosition(t *testing.T) {
	p := NewClockPlayer(time.Millisecond)
	require.NoError(t, p.Load(&Track{Ref: "audio/ch01.wav", Format: FormatWAV, Duration: 600}))

	require.NoError(t, p.Seek(42))
	assert.Equal(t, 42.0, p.Position(), "paused player holds the seek target")

	require.NoError(t, p.Pause())
	assert.Equal(t, 42.0, p.Position())

	require.NoError(t, p.Stop())
	assert.Equal(t, 0.0, p.Position(), "stop rewinds")
}

func TestClockPlayerRequiresTrack(t *testing.T) {
	p := NewClockPlayer(time.Millisecond)
	assert.True(t, errors.Is(p.Play(), errors.ErrMedia))
	assert.True(t, errors.Is(p.Seek(1), errors.ErrMedia))
}

func TestOtoPlayerRejectsMP3(t *testing.T) {
	p := NewOtoPlayer(time.Millisecond)
	err := p.Load(&Track{Ref: "audio/ch01.mp3", Format: FormatMP3, Data: []byte("x"), Duration: 1})
	assert.True(t, errors.Is(err, errors.ErrMedia))
}

func TestOtoPlayerRejectsNonUnitSpeed(t *testing.T) {
	p := NewOtoPlayer(time.Millisecond)
	assert.True(t, errors.Is(p.SetSpeed(1.5), errors.ErrMedia))
	assert.NoError(t, p.SetSpeed(1.0))
}
