// Package providers contains dependency injection providers for the add-on.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-addon/internal/config"
	"github.com/listenupapp/listenup-addon/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting audiobook add-on",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"port", cfg.Server.Port,
		"index_path", cfg.Index.Path,
		"search_path", cfg.Search.Path,
	)

	return log, nil
}
