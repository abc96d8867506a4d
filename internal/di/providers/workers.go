package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/cuemarkapp/cuemark-server/internal/config"
	"github.com/cuemarkapp/cuemark-server/internal/ingest"
	"github.com/cuemarkapp/cuemark-server/internal/logger"
)

// IngestWatcherHandle owns the drop-directory watcher goroutine.
type IngestWatcherHandle struct {
	watcher *ingest.Watcher
	cancel  context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *IngestWatcherHandle) Shutdown() error {
	if h.watcher == nil {
		return nil
	}
	h.cancel()
	return h.watcher.Stop()
}

// ProvideIngestWatcher starts watching the analyzer drop directory for cue
// result files. With no drop path configured the watcher is disabled.
func ProvideIngestWatcher(i do.Injector) (*IngestWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Ingest.DropPath == "" {
		log.Info("Ingest watcher disabled, no drop path configured")
		return &IngestWatcherHandle{}, nil
	}

	sh := do.MustInvoke[*StoreHandle](i)
	ingestor := ingest.NewIngestor(sh.Store, log)
	watcher, err := ingest.NewWatcher(cfg.Ingest.DropPath, ingestor, log)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		// Start sweeps, then blocks on the context until shutdown.
		if err := watcher.Start(ctx); err != nil {
			log.Error("Ingest watcher stopped", "error", err)
		}
	}()
	return &IngestWatcherHandle{watcher: watcher, cancel: cancel}, nil
}
