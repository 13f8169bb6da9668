package providers

import (
	"github.com/samber/do/v2"

	"github.com/readalongapp/readalong-engine/internal/audio"
	"github.com/readalongapp/readalong-engine/internal/config"
	"github.com/readalongapp/readalong-engine/internal/logger"
)

// PlayerHandle wraps the audio player with shutdown capability. One player
// exists per process; the audio device cannot be shared across sessions.
type PlayerHandle struct {
	audio.Player
}

// Shutdown implements do.Shutdownable.
func (h *PlayerHandle) Shutdown() error {
	return h.Close()
}

// ProvidePlayer provides the configured playback backend.
func ProvidePlayer(i do.Injector) (*PlayerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var player audio.Player
	switch cfg.Playback.Output {
	case "clock":
		player = audio.NewClockPlayer(cfg.Playback.TickInterval)
	default:
		player = audio.NewOtoPlayer(cfg.Playback.TickInterval)
	}

	log.Info("Playback output ready", "output", cfg.Playback.Output)

	return &PlayerHandle{Player: player}, nil
}

// ProvideResolver provides the audio track resolver.
func ProvideResolver(i do.Injector) (*audio.Resolver, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return audio.NewResolver(log), nil
}
