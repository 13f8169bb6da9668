package audio

import (
	"sync"
	"time"

	"github.com/readalongapp/readalong-engine/internal/errors"
)

// TickFunc receives the playback position in seconds. Ticks are the sole
// recurring event source of the engine; everything derived (sentence lookup,
// highlight recompute, progress save, sleep-timer tick) runs synchronously
// inside the callback.
type TickFunc func(position float64)

// EndFunc signals that the loaded track played to its end.
type EndFunc func()

// Player is the output port the playback controller drives.
type Player interface {
	// Load replaces the current track. Implementations that cannot play the
	// track's format return a media error so the caller can fall back.
	Load(t *Track) error
	Play() error
	Pause() error
	Stop() error
	// Seek moves to position (seconds). Callers clamp to [0, duration].
	Seek(position float64) error
	Position() float64
	Duration() float64
	// SetSpeed applies an already validated playback rate.
	SetSpeed(speed float64) error
	// OnTick and OnEnd register the engine's callbacks. Must be set before
	// the first Play.
	OnTick(fn TickFunc)
	OnEnd(fn EndFunc)
	Close() error
}

// ClockPlayer is a headless Player driven by a wall-clock ticker. It renders
// no sound; position advances at the configured speed while playing. The
// rendering adapter (or tests) observes playback purely through ticks.
type ClockPlayer struct {
	interval time.Duration

	mu       sync.Mutex
	track    *Track
	position float64
	speed    float64
	playing  bool
	lastStep time.Time
	stop     chan struct{}

	tick TickFunc
	end  EndFunc
}

// NewClockPlayer creates a headless player ticking at the given interval.
// A non-positive interval defaults to 250ms, a few ticks per second.
func NewClockPlayer(interval time.Duration) *ClockPlayer {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &ClockPlayer{interval: interval, speed: 1.0}
}

// OnTick implements Player.
func (p *ClockPlayer) OnTick(fn TickFunc) { p.tick = fn }

// OnEnd implements Player.
func (p *ClockPlayer) OnEnd(fn EndFunc) { p.end = fn }

// Load implements Player. Any format is accepted; nothing is decoded.
func (p *ClockPlayer) Load(t *Track) error {
	if t == nil {
		return errors.Media("no track")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopTickerLocked()
	p.track = t
	p.position = 0
	p.playing = false
	return nil
}

// Play implements Player.
func (p *ClockPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.track == nil {
		return errors.Media("no track loaded")
	}
	if p.playing {
		return nil
	}
	p.playing = true
	p.lastStep = time.Now()
	p.stop = make(chan struct{})
	go p.run(p.stop)
	return nil
}

// Pause implements Player.
func (p *ClockPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advanceLocked(time.Now())
	p.stopTickerLocked()
	return nil
}

// Stop implements Player. Position resets to zero.
func (p *ClockPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopTickerLocked()
	p.position = 0
	return nil
}

// Seek implements Player.
func (p *ClockPlayer) Seek(position float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.track == nil {
		return errors.Media("no track loaded")
	}
	p.position = position
	p.lastStep = time.Now()
	return nil
}

// Position implements Player.
func (p *ClockPlayer) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advanceLocked(time.Now())
	return p.position
}

// Duration implements Player.
func (p *ClockPlayer) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.track == nil {
		return 0
	}
	return p.track.Duration
}

// SetSpeed implements Player.
func (p *ClockPlayer) SetSpeed(speed float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advanceLocked(time.Now())
	p.speed = speed
	return nil
}

// Close implements Player.
func (p *ClockPlayer) Close() error {
	return p.Stop()
}

func (p *ClockPlayer) run(stop chan struct{}) {
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

// step advances the position and reports whether the track ended.
func (p *ClockPlayer) step(now time.Time) (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.advanceLocked(now)
	if p.track != nil && p.position >= p.track.Duration {
		p.position = p.track.Duration
		p.stopTickerLocked()
		return p.position, true
	}
	return p.position, false
}

func (p *ClockPlayer) advanceLocked(now time.Time) {
	if !p.playing {
		return
	}
	p.position += now.Sub(p.lastStep).Seconds() * p.speed
	p.lastStep = now
}

func (p *ClockPlayer) stopTickerLocked() {
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
	p.playing = false
}
