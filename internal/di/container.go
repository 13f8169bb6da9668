// Package di provides dependency injection configuration for the engine.
package di

import (
	"github.com/samber/do/v2"

	"github.com/readalongapp/readalong-engine/internal/backup"
	"github.com/readalongapp/readalong-engine/internal/book"
	"github.com/readalongapp/readalong-engine/internal/config"
	"github.com/readalongapp/readalong-engine/internal/di/providers"
	"github.com/readalongapp/readalong-engine/internal/library"
	"github.com/readalongapp/readalong-engine/internal/logger"
	"github.com/readalongapp/readalong-engine/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Persistence
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideBackup)

	// Artifacts and audio
	do.Provide(injector, providers.ProvideLoader)
	do.Provide(injector, providers.ProvideResolver)
	do.Provide(injector, providers.ProvidePlayer)

	// Library catalog
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideLibraryScanner)
	do.Provide(injector, providers.ProvideLibraryWatcher)

	// Sessions
	do.Provide(injector, providers.ProvideSessionFactory)

	return injector
}

// Bootstrap triggers lazy initialization of all services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*backup.Service](injector)
	_ = do.MustInvoke[*book.Loader](injector)
	_ = do.MustInvoke[*providers.PlayerHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*library.Scanner](injector)
	_ = do.MustInvoke[*providers.LibraryWatcherHandle](injector)
	_ = do.MustInvoke[*providers.SessionFactory](injector)

	return nil
}
