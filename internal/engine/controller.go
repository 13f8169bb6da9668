// Package engine orchestrates a read-along session: chapter loading, audio
// resolution, play/pause/seek/speed, and the per-tick pipeline that drives
// highlighting, progress saving, and the sleep timer.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/readalongapp/readalong-engine/internal/annotations"
	"github.com/readalongapp/readalong-engine/internal/audio"
	"github.com/readalongapp/readalong-engine/internal/book"
	"github.com/readalongapp/readalong-engine/internal/domain"
	"github.com/readalongapp/readalong-engine/internal/errors"
	"github.com/readalongapp/readalong-engine/internal/highlight"
	"github.com/readalongapp/readalong-engine/internal/logger"
	"github.com/readalongapp/readalong-engine/internal/progress"
	"github.com/readalongapp/readalong-engine/internal/sleeptimer"
	"github.com/readalongapp/readalong-engine/internal/textsearch"
	"github.com/readalongapp/readalong-engine/internal/timing"
)

// Skip distances offered by the transport controls, in seconds.
const (
	SkipBack5     = -5.0
	SkipBack10    = -10.0
	SkipForward5  = 5.0
	SkipForward10 = 10.0
	SkipForward30 = 30.0
)

// SettingsStore persists the reader settings document.
type SettingsStore interface {
	GetOrCreateSettings(ctx context.Context) (*domain.ReaderSettings, error)
	UpsertSettings(ctx context.Context, settings *domain.ReaderSettings) error
}

// Config wires a controller's collaborators.
type Config struct {
	Loader      *book.Loader
	Source      book.Source
	Resolver    *audio.Resolver
	Player      audio.Player
	Progress    *progress.Tracker
	Annotations *annotations.Store
	Settings    SettingsStore
	Listener    Listener
	Metrics     Metrics
	Clock       func() time.Time
	Log         *logger.Logger
}

// Controller is the playback controller. All mutating calls and the tick
// pipeline serialize on one mutex; the player's tick goroutine is the only
// concurrent caller.
type Controller struct {
	loader      *book.Loader
	src         book.Source
	resolver    *audio.Resolver
	player      audio.Player
	progress    *progress.Tracker
	annotations *annotations.Store
	settingsDB  SettingsStore
	listener    Listener
	metrics     Metrics
	clock       func() time.Time
	log         *logger.Logger
	sleep       *sleeptimer.Timer

	mu         sync.Mutex
	state      State
	book       *domain.Book
	settings   *domain.ReaderSettings
	chapter    int
	index      *timing.Index
	hl         *highlight.Machine
	audioOK    bool
	duration   float64
	loadCancel context.CancelFunc
	loadSeq    int

	lastSleepTick time.Time
}

// New creates a controller in the Idle state.
func New(cfg Config) *Controller {
	if cfg.Listener == nil {
		cfg.Listener = NopListener{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	c := &Controller{
		loader:      cfg.Loader,
		src:         cfg.Source,
		resolver:    cfg.Resolver,
		player:      cfg.Player,
		progress:    cfg.Progress,
		annotations: cfg.Annotations,
		settingsDB:  cfg.Settings,
		listener:    cfg.Listener,
		metrics:     cfg.Metrics,
		clock:       cfg.Clock,
		log:         cfg.Log,
		sleep:       sleeptimer.New(),
		state:       Idle,
	}
	c.player.OnTick(c.Tick)
	c.player.OnEnd(c.onChapterEnd)
	return c
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Book returns the open book, or nil.
func (c *Controller) Book() *domain.Book {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.book
}

// Chapter returns the current chapter index.
func (c *Controller) Chapter() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chapter
}

// CurrentSentence returns the active sentence index, or -1.
func (c *Controller) CurrentSentence() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hl == nil {
		return -1
	}
	return c.hl.Current()
}

// Settings returns the live settings document.
func (c *Controller) Settings() *domain.ReaderSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// OpenBook loads a book's artifacts, its annotation document, and the reader
// settings, then loads the chapter saved progress points at (or the first
// chapter). Artifact failure is fatal; everything else degrades.
func (c *Controller) OpenBook(ctx context.Context) error {
	b, err := c.loader.Load(ctx, c.src)
	if err != nil {
		return err
	}

	settings, err := c.settingsDB.GetOrCreateSettings(ctx)
	if err != nil {
		c.log.WithError(err).Warn("settings unavailable, using defaults")
		settings = domain.NewReaderSettings()
	}

	if err := c.annotations.Open(ctx, b); err != nil {
		return err
	}

	c.mu.Lock()
	c.book = b
	c.settings = settings
	c.mu.Unlock()

	startChapter, startPos := 0, 0.0
	if p, err := c.progress.Restore(ctx, b.ID, c.clock()); err != nil {
		c.log.WithError(err).Warn("failed to restore progress", "book_id", b.ID)
	} else if p != nil && p.Chapter >= 0 && p.Chapter < b.ChapterCount() {
		startChapter, startPos = p.Chapter, p.Position
	}

	return c.LoadChapter(ctx, startChapter, startPos)
}

// LoadChapter switches the session to another chapter. A new call supersedes
// any load still in flight. Audio failure leaves the chapter open for text
// and annotation work; play and seek become warned no-ops.
func (c *Controller) LoadChapter(ctx context.Context, index int, startPosition float64) error {
	c.mu.Lock()
	if c.book == nil {
		c.mu.Unlock()
		return errors.Validation("no book is open")
	}
	ch := c.book.ChapterAt(index)
	if ch == nil {
		c.mu.Unlock()
		return errors.Validationf("chapter %d out of range", index)
	}

	// Supersede any in-flight load.
	if c.loadCancel != nil {
		c.loadCancel()
	}
	loadCtx, cancel := context.WithCancel(ctx)
	c.loadCancel = cancel
	c.loadSeq++
	seq := c.loadSeq

	_ = c.player.Stop()
	c.chapter = index
	c.index = timing.NewIndex(ch.Entries)
	c.hl = highlight.NewMachine(len(ch.Entries))
	c.duration = ch.Duration
	c.audioOK = false
	c.setStateLocked(Loading)
	c.listener.ProgressChanged(0, ch.Duration)
	c.mu.Unlock()

	track, err := c.resolveAudio(loadCtx, ch)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.loadSeq {
		// A newer load superseded this one while it was fetching.
		return nil
	}

	if err != nil {
		c.log.WithError(err).Warn("chapter audio unavailable",
			"chapter", index, "audio_ref", ch.AudioRef)
		c.setStateLocked(Ready)
		c.listener.ChapterUnavailable(index, err)
		return nil
	}

	c.audioOK = true
	c.duration = track.Duration
	if startPosition > 0 {
		if startPosition > c.duration {
			startPosition = c.duration
		}
		if err := c.player.Seek(startPosition); err != nil {
			c.log.WithError(err).Warn("failed to seek to saved position")
		}
	}
	c.setStateLocked(Ready)
	c.listener.ProgressChanged(startPosition, c.duration)
	return nil
}

// resolveAudio fetches the preferred audio form and falls back to the
// canonical one when the output device cannot decode the preferred bytes.
func (c *Controller) resolveAudio(ctx context.Context, ch *domain.Chapter) (*audio.Track, error) {
	track, err := c.resolver.Resolve(ctx, c.src, ch.AudioRef, ch.Duration)
	if err != nil {
		return nil, err
	}

	if err := c.player.Load(track); err == nil {
		return track, nil
	} else if track.Ref == ch.AudioRef {
		return nil, err
	}

	track, err = c.resolver.Canonical(ctx, c.src, ch.AudioRef, ch.Duration)
	if err != nil {
		return nil, err
	}
	if err := c.player.Load(track); err != nil {
		return nil, err
	}
	return track, nil
}

// Play starts or resumes playback.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.audioOK {
		c.log.Warn("play ignored, chapter audio unavailable", "chapter", c.chapter)
		return errors.Media("chapter audio unavailable")
	}
	if c.state == Playing {
		return nil
	}
	if err := c.player.Play(); err != nil {
		return err
	}
	c.lastSleepTick = c.clock()
	c.setStateLocked(Playing)
	return nil
}

// Pause halts playback and flushes any pending progress write.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pauseLocked()
}

func (c *Controller) pauseLocked() error {
	if c.state != Playing {
		return nil
	}
	if err := c.player.Pause(); err != nil {
		return err
	}
	c.setStateLocked(Paused)
	if c.book != nil {
		if err := c.progress.Flush(context.Background(), c.book.ID); err != nil {
			c.log.WithError(err).Warn("failed to flush progress on pause")
		}
	}
	return nil
}

// Seek moves playback to t seconds, clamped to [0, duration], and reruns the
// highlight pipeline immediately so the display never lags a seek.
func (c *Controller) Seek(t float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.audioOK {
		c.log.Warn("seek ignored, chapter audio unavailable", "chapter", c.chapter)
		return errors.Media("chapter audio unavailable")
	}

	if t < 0 {
		t = 0
	}
	if t > c.duration {
		t = c.duration
	}
	if err := c.player.Seek(t); err != nil {
		return err
	}
	c.advanceHighlightLocked(t)
	c.listener.ProgressChanged(t, c.duration)
	return nil
}

// Skip jumps relative to the current position.
func (c *Controller) Skip(delta float64) error {
	c.mu.Lock()
	pos := c.player.Position()
	c.mu.Unlock()
	return c.Seek(pos + delta)
}

// SetSpeed applies one of the enumerated playback speeds and persists it.
// A device that cannot change rate keeps playing; the choice still persists
// so a capable player picks it up.
func (c *Controller) SetSpeed(ctx context.Context, speed float64) error {
	if !domain.ValidSpeed(speed) {
		return errors.Validationf("unsupported playback speed %.2f", speed)
	}

	c.mu.Lock()
	if err := c.player.SetSpeed(speed); err != nil {
		c.log.WithError(err).Warn("player rejected playback speed", "speed", speed)
	}
	settings := c.settings
	if settings != nil {
		settings.PlaybackSpeed = speed
		settings.UpdatedAt = c.clock()
	}
	c.mu.Unlock()

	if settings != nil {
		if err := c.settingsDB.UpsertSettings(ctx, settings); err != nil {
			return errors.ErrPersistence.WithMessage("failed to persist playback speed").WithCause(err)
		}
	}
	return nil
}

// NextChapter loads the following chapter from its beginning.
func (c *Controller) NextChapter(ctx context.Context) error {
	c.mu.Lock()
	next := c.chapter + 1
	count := 0
	if c.book != nil {
		count = c.book.ChapterCount()
	}
	c.mu.Unlock()

	if next >= count {
		return errors.Validation("already at the last chapter")
	}
	return c.LoadChapter(ctx, next, 0)
}

// PrevChapter loads the preceding chapter from its beginning.
func (c *Controller) PrevChapter(ctx context.Context) error {
	c.mu.Lock()
	prev := c.chapter - 1
	c.mu.Unlock()

	if prev < 0 {
		return errors.Validation("already at the first chapter")
	}
	return c.LoadChapter(ctx, prev, 0)
}

// Search scans the open book for query.
func (c *Controller) Search(query string) textsearch.Result {
	c.mu.Lock()
	b := c.book
	c.mu.Unlock()
	return textsearch.Search(b, query)
}

// JumpToSentence loads the target chapter if needed, then seeks to the
// sentence's start. Used when the user selects a search match or annotation.
func (c *Controller) JumpToSentence(ctx context.Context, chapter int, sentenceID string) error {
	c.mu.Lock()
	current := c.chapter
	c.mu.Unlock()

	if chapter != current {
		if err := c.LoadChapter(ctx, chapter, 0); err != nil {
			return err
		}
	}

	c.mu.Lock()
	start, ok := c.index.StartOf(sentenceID)
	c.mu.Unlock()
	if !ok {
		return errors.Validationf("sentence %s not in chapter %d", sentenceID, chapter)
	}
	return c.Seek(start)
}

// SetSleepTimer starts a countdown of the given number of minutes.
func (c *Controller) SetSleepTimer(minutes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleep.SetDuration(time.Duration(minutes) * time.Minute)
	c.lastSleepTick = c.clock()
}

// SetSleepEndOfChapter latches playback to stop when the chapter ends.
func (c *Controller) SetSleepEndOfChapter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleep.SetEndOfChapter()
}

// CancelSleepTimer returns the sleep timer to idle.
func (c *Controller) CancelSleepTimer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleep.Cancel()
}

// SleepTimer reports the timer's mode and remaining countdown.
func (c *Controller) SleepTimer() (sleeptimer.Mode, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sleep.Mode(), c.sleep.Remaining()
}

// Tick runs the per-tick pipeline at the given playback position: sentence
// lookup, highlight recompute, progress save, sleep-timer tick. Everything
// runs synchronously so no derived computation interleaves with another.
func (c *Controller) Tick(position float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Playing || c.book == nil {
		return
	}

	c.advanceHighlightLocked(position)
	c.listener.ProgressChanged(position, c.duration)

	if err := c.progress.Save(context.Background(), c.book.ID, c.chapter, position, c.clock()); err != nil {
		c.log.WithError(err).Warn("failed to save progress")
	}

	c.tickSleepLocked()
}

// tickSleepLocked feeds whole elapsed seconds to the sleep timer and pauses
// exactly once on expiry.
func (c *Controller) tickSleepLocked() {
	now := c.clock()
	for now.Sub(c.lastSleepTick) >= time.Second {
		c.lastSleepTick = c.lastSleepTick.Add(time.Second)
		if c.sleep.Tick() {
			c.log.Info("sleep timer expired, pausing")
			if err := c.pauseLocked(); err != nil {
				c.log.WithError(err).Warn("failed to pause on sleep expiry")
			}
			return
		}
	}
}

// advanceHighlightLocked recomputes sentence states for the position and
// notifies the adapter when the active sentence moved.
func (c *Controller) advanceHighlightLocked(position float64) {
	if c.index == nil || c.hl == nil {
		return
	}

	idx := c.index.Locate(position)
	if !c.hl.Advance(idx) {
		return
	}
	c.listener.SentenceChanged(c.chapter, idx, c.hl.States())

	if c.metrics == nil || idx < 0 {
		return
	}
	vp, offset, ok := c.metrics.Viewport(idx)
	if !ok {
		return
	}
	req, want := highlight.ScrollDecision(vp, offset, idx, c.state == Playing, c.settings != nil && c.settings.AutoScroll)
	if want {
		c.listener.ScrollRequested(req)
	}
}

// onChapterEnd handles the player reaching the end of the loaded track.
func (c *Controller) onChapterEnd() {
	c.mu.Lock()

	if c.book == nil {
		c.mu.Unlock()
		return
	}

	if c.sleep.ChapterEnded() {
		// End-of-chapter timer: stop here, no auto-advance.
		c.log.Info("end-of-chapter sleep timer fired", "chapter", c.chapter)
		_ = c.player.Stop()
		c.setStateLocked(Ended)
		c.flushProgressLocked()
		c.mu.Unlock()
		return
	}

	next := c.chapter + 1
	if next >= c.book.ChapterCount() {
		c.setStateLocked(Ended)
		c.flushProgressLocked()
		c.listener.BookFinished()
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	// Auto-advance.
	if err := c.LoadChapter(context.Background(), next, 0); err != nil {
		c.log.WithError(err).Warn("auto-advance failed", "chapter", next)
		return
	}
	if err := c.Play(); err != nil {
		c.log.WithError(err).Warn("auto-advance play failed", "chapter", next)
	}
}

// CloseBook ends the session: pending loads are cancelled, the sleep timer
// cleared, progress flushed, and the annotation document released.
func (c *Controller) CloseBook() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loadCancel != nil {
		c.loadCancel()
		c.loadCancel = nil
	}
	_ = c.player.Stop()
	c.sleep.Cancel()
	c.flushProgressLocked()
	c.annotations.Close()

	c.book = nil
	c.index = nil
	c.hl = nil
	c.audioOK = false
	c.setStateLocked(Idle)
}

func (c *Controller) flushProgressLocked() {
	if c.book == nil {
		return
	}
	if err := c.progress.Flush(context.Background(), c.book.ID); err != nil {
		c.log.WithError(err).Warn("failed to flush progress")
	}
}

func (c *Controller) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.state = s
	c.listener.StateChanged(s)
}
