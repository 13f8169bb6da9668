package providers

import (
	"context"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/readalongapp/readalong-engine/internal/config"
	"github.com/readalongapp/readalong-engine/internal/domain"
	"github.com/readalongapp/readalong-engine/internal/logger"
	"github.com/readalongapp/readalong-engine/internal/store"
	"github.com/readalongapp/readalong-engine/internal/store/sqlite"
)

// Persistence is the union of store operations the engine consumes. Both
// the Badger and the SQLite store satisfy it, so the backend is purely a
// config choice.
type Persistence interface {
	GetProgress(ctx context.Context, bookID string) (*domain.Progress, error)
	SaveProgress(ctx context.Context, p *domain.Progress) error
	DeleteProgress(ctx context.Context, bookID string) error
	ListProgress(ctx context.Context) ([]*domain.Progress, error)

	GetBookData(ctx context.Context, bookID string) (*domain.BookData, error)
	PutBookData(ctx context.Context, data *domain.BookData) error
	DeleteBookData(ctx context.Context, bookID string) error
	ListBookData(ctx context.Context) ([]*domain.BookData, error)

	GetSettings(ctx context.Context) (*domain.ReaderSettings, error)
	UpsertSettings(ctx context.Context, s *domain.ReaderSettings) error
	GetOrCreateSettings(ctx context.Context) (*domain.ReaderSettings, error)

	Close() error
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	Persistence
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the persistence backend named by the config.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var db Persistence
	var err error

	switch cfg.Data.Backend {
	case "sqlite":
		db, err = sqlite.Open(filepath.Join(cfg.Data.BasePath, "engine.db"), log)
	default:
		db, err = store.New(filepath.Join(cfg.Data.BasePath, "db"), log)
	}
	if err != nil {
		return nil, err
	}

	log.Info("Store initialized", "backend", cfg.Data.Backend, "path", cfg.Data.BasePath)

	return &StoreHandle{Persistence: db}, nil
}
