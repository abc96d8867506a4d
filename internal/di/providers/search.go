package providers

import (
	"github.com/samber/do/v2"

	"github.com/cuemarkapp/cuemark-server/internal/config"
	"github.com/cuemarkapp/cuemark-server/internal/logger"
	"github.com/cuemarkapp/cuemark-server/internal/search"
)

// SearchIndexHandle wraps the Bleve index so the container closes it on
// shutdown.
type SearchIndexHandle struct {
	Index *search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Index.Close()
}

// ProvideSearchIndex opens the search index under the data directory.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	idx, err := search.NewIndex(search.Options{
		DataPath: cfg.Data.BasePath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &SearchIndexHandle{Index: idx}, nil
}
