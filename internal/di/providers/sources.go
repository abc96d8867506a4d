package providers

import (
	"github.com/samber/do/v2"

	"github.com/cuemarkapp/cuemark-server/internal/config"
	"github.com/cuemarkapp/cuemark-server/internal/logger"
	"github.com/cuemarkapp/cuemark-server/internal/sources"
)

// CatalogClientHandle wraps the catalog HTTP client so idle connections are
// released on shutdown.
type CatalogClientHandle struct {
	Client *sources.CatalogClient
}

// Shutdown implements do.Shutdownable.
func (h *CatalogClientHandle) Shutdown() error {
	h.Client.Close()
	return nil
}

// ProvideCatalogClient creates the external chapter catalog client. With no
// base URL configured the client reports itself disabled and is never called.
func ProvideCatalogClient(i do.Injector) (*CatalogClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := sources.NewCatalogClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout, log.Logger)
	if cfg.Catalog.BaseURL != "" {
		log.Info("Chapter catalog enabled", "base_url", cfg.Catalog.BaseURL)
	}
	return &CatalogClientHandle{Client: client}, nil
}
