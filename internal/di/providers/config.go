package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/cuemarkapp/cuemark-server/internal/config"
	"github.com/cuemarkapp/cuemark-server/internal/logger"
)

// ProvideConfig loads configuration from flags, environment, and .env file.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger creates the application logger from configuration.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	format := "pretty"
	if cfg.App.Environment == "production" {
		format = "json"
	}

	log := logger.New(logger.Config{
		Writer:      os.Stdout,
		Format:      format,
		Environment: cfg.App.Environment,
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment != "production",
	})
	return log, nil
}
