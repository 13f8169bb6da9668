// Package providers contains dependency injection providers for the
// read-along engine.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/readalongapp/readalong-engine/internal/config"
	"github.com/readalongapp/readalong-engine/internal/logger"
	"github.com/readalongapp/readalong-engine/internal/validation"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.Load()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting read-along engine",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Data.BasePath,
		"library_path", cfg.Library.Root,
	)

	return log, nil
}

// ProvideValidator provides the struct validator used for artifact loading.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}
