package providers

import (
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/cuemarkapp/cuemark-server/internal/config"
	"github.com/cuemarkapp/cuemark-server/internal/logger"
	"github.com/cuemarkapp/cuemark-server/internal/store"
)

// StoreHandle wraps the store so the container closes it on shutdown.
type StoreHandle struct {
	Store *store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Store.Close()
}

// ProvideStore opens the Badger database under the data directory.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	s, err := store.New(filepath.Join(cfg.Data.BasePath, "db"), log.Logger)
	if err != nil {
		return nil, err
	}
	log.Info("Database opened", "path", filepath.Join(cfg.Data.BasePath, "db"))
	return &StoreHandle{Store: s}, nil
}
