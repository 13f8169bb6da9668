package providers

import (
	"github.com/samber/do/v2"

	"github.com/readalongapp/readalong-engine/internal/annotations"
	"github.com/readalongapp/readalong-engine/internal/audio"
	"github.com/readalongapp/readalong-engine/internal/book"
	"github.com/readalongapp/readalong-engine/internal/engine"
	"github.com/readalongapp/readalong-engine/internal/logger"
	"github.com/readalongapp/readalong-engine/internal/progress"
)

// SessionFactory builds playback controllers. Controllers are per-book (the
// source points at one book's artifacts); the player, stores, and loader
// behind them are process-wide.
type SessionFactory struct {
	loader   *book.Loader
	resolver *audio.Resolver
	player   audio.Player
	db       Persistence
	log      *logger.Logger
}

// NewSession creates a controller over the given book source. listener and
// metrics may be nil for headless use.
func (f *SessionFactory) NewSession(src book.Source, listener engine.Listener, metrics engine.Metrics) *engine.Controller {
	return engine.New(engine.Config{
		Loader:      f.loader,
		Source:      src,
		Resolver:    f.resolver,
		Player:      f.player,
		Progress:    progress.NewTracker(f.db, f.log),
		Annotations: annotations.New(f.db, nil, f.log),
		Settings:    f.db,
		Listener:    listener,
		Metrics:     metrics,
		Log:         f.log,
	})
}

// ProvideSessionFactory provides the controller factory.
func ProvideSessionFactory(i do.Injector) (*SessionFactory, error) {
	return &SessionFactory{
		loader:   do.MustInvoke[*book.Loader](i),
		resolver: do.MustInvoke[*audio.Resolver](i),
		player:   do.MustInvoke[*PlayerHandle](i).Player,
		db:       do.MustInvoke[*StoreHandle](i).Persistence,
		log:      do.MustInvoke[*logger.Logger](i),
	}, nil
}
