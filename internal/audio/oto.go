package audio

import (
	"bytes"
	"encoding/binary"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/readalongapp/readalong-engine/internal/errors"
)

// OtoPlayer renders PCM WAV tracks through the system audio device. MP3
// tracks are rejected at Load so the resolver's canonical-WAV fallback kicks
// in. The oto device plays at a fixed rate, so speeds other than 1.0 are
// rejected; the controller reports that back as a warning.
type OtoPlayer struct {
	interval time.Duration

	mu      sync.Mutex
	ctx     *oto.Context
	ctxSpec wavSpec
	player  *oto.Player
	track   *Track
	wav     *wavData
	playing bool

	// wall-clock position model, same approach as the rest of the package
	position float64
	lastStep time.Time
	stop     chan struct{}

	tick TickFunc
	end  EndFunc
}

// wavSpec is the PCM format a decoded file declares.
type wavSpec struct {
	sampleRate int
	channels   int
	bitDepth   int
}

// wavData is a parsed WAV file: its spec plus the raw PCM payload.
type wavData struct {
	spec wavSpec
	pcm  []byte
}

// NewOtoPlayer creates a device-backed player ticking at the given interval.
func NewOtoPlayer(interval time.Duration) *OtoPlayer {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &OtoPlayer{interval: interval}
}

// OnTick implements Player.
func (p *OtoPlayer) OnTick(fn TickFunc) { p.tick = fn }

// OnEnd implements Player.
func (p *OtoPlayer) OnEnd(fn EndFunc) { p.end = fn }

// Load implements Player.
func (p *OtoPlayer) Load(t *Track) error {
	if t == nil {
		return errors.Media("no track")
	}
	if t.Format != FormatWAV {
		return errors.Mediaf("cannot decode %s, need wav", t.Format)
	}

	wav, err := parseWAV(t.Data)
	if err != nil {
		return errors.Media("malformed wav file").WithCause(err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	if err := p.ensureContextLocked(wav.spec); err != nil {
		return err
	}

	p.track = t
	p.wav = wav
	p.position = 0
	p.player = p.ctx.NewPlayer(bytes.NewReader(wav.pcm))
	return nil
}

// ensureContextLocked initializes the oto context on first use. Oto allows
// one context per process, so a later track with a different spec than the
// first is a media error.
func (p *OtoPlayer) ensureContextLocked(spec wavSpec) error {
	if p.ctx != nil {
		if spec != p.ctxSpec {
			return errors.Mediaf("wav spec %dHz/%dch differs from device %dHz/%dch",
				spec.sampleRate, spec.channels, p.ctxSpec.sampleRate, p.ctxSpec.channels)
		}
		return nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   spec.sampleRate,
		ChannelCount: spec.channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return errors.Media("failed to open audio device").WithCause(err)
	}
	<-ready

	p.ctx = ctx
	p.ctxSpec = spec
	return nil
}

// Play implements Player.
func (p *OtoPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player == nil {
		return errors.Media("no track loaded")
	}
	if p.playing {
		return nil
	}

	p.player.Play()
	p.playing = true
	p.lastStep = time.Now()
	p.stop = make(chan struct{})
	go p.run(p.stop)
	return nil
}

// Pause implements Player.
func (p *OtoPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.advanceLocked(time.Now())
	p.stopLocked()
	if p.player != nil {
		p.player.Pause()
	}
	return nil
}

// Stop implements Player.
func (p *OtoPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	if p.player != nil {
		p.player.Pause()
		p.player = p.ctx.NewPlayer(bytes.NewReader(p.wav.pcm))
	}
	p.position = 0
	return nil
}

// Seek implements Player. The device player restarts from the byte offset
// matching the position, aligned to a whole sample frame.
func (p *OtoPlayer) Seek(position float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player == nil {
		return errors.Media("no track loaded")
	}

	wasPlaying := p.playing
	p.player.Pause()

	frame := p.wav.spec.channels * p.wav.spec.bitDepth / 8
	offset := int(position*float64(p.wav.spec.sampleRate)) * frame
	if offset > len(p.wav.pcm) {
		offset = len(p.wav.pcm)
	}
	offset -= offset % frame

	p.player = p.ctx.NewPlayer(bytes.NewReader(p.wav.pcm[offset:]))
	p.position = position
	p.lastStep = time.Now()
	if wasPlaying {
		p.player.Play()
	}
	return nil
}

// Position implements Player.
func (p *OtoPlayer) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advanceLocked(time.Now())
	return p.position
}

// Duration implements Player.
func (p *OtoPlayer) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.track == nil {
		return 0
	}
	return p.track.Duration
}

// SetSpeed implements Player. The device renders at its native rate only.
func (p *OtoPlayer) SetSpeed(speed float64) error {
	if speed != 1.0 {
		return errors.Mediaf("device playback supports 1.0x only, got %.2fx", speed)
	}
	return nil
}

// Close implements Player.
func (p *OtoPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	if p.player != nil {
		p.player.Pause()
		p.player = nil
	}
	return nil
}

func (p *OtoPlayer) run(stop chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			pos, ended := p.step(now)
			if p.tick != nil {
				p.tick(pos)
			}
			if ended {
				if p.end != nil {
					p.end()
				}
				return
			}
		}
	}
}

func (p *OtoPlayer) step(now time.Time) (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.advanceLocked(now)
	if p.track != nil && p.position >= p.track.Duration {
		p.position = p.track.Duration
		p.stopLocked()
		return p.position, true
	}
	return p.position, false
}

func (p *OtoPlayer) advanceLocked(now time.Time) {
	if !p.playing {
		return
	}
	p.position += now.Sub(p.lastStep).Seconds()
	p.lastStep = now
}

func (p *OtoPlayer) stopLocked() {
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
	p.playing = false
}

// parseWAV extracts the PCM payload and format from a RIFF/WAVE file.
// Only 16-bit PCM is supported, which is what the conversion pipeline emits.
func parseWAV(data []byte) (*wavData, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, errors.Media("not a RIFF/WAVE file")
	}

	var spec wavSpec
	var pcm []byte
	haveFmt := false

	// Walk the chunk list.
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+size > len(data) {
			return nil, errors.Media("truncated wav chunk")
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, errors.Media("short fmt chunk")
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			if format != 1 { // PCM
				return nil, errors.Mediaf("unsupported wav encoding %d", format)
			}
			spec.channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			spec.sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			spec.bitDepth = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			if spec.bitDepth != 16 {
				return nil, errors.Mediaf("unsupported bit depth %d", spec.bitDepth)
			}
			haveFmt = true
		case "data":
			pcm = data[body : body+size]
		}

		// Chunks are word aligned.
		off = body + size + size%2
	}

	if !haveFmt || pcm == nil {
		return nil, errors.Media("wav missing fmt or data chunk")
	}
	return &wavData{spec: spec, pcm: pcm}, nil
}
