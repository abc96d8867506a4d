package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/cuemarkapp/cuemark-server/internal/auth"
	"github.com/cuemarkapp/cuemark-server/internal/config"
	"github.com/cuemarkapp/cuemark-server/internal/logger"
	"github.com/cuemarkapp/cuemark-server/internal/service"
	"github.com/cuemarkapp/cuemark-server/internal/validation"
)

// ProvideAuthService creates the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	sh := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(sh.Store, tokens, validation.New(), log), nil
}

// ProvideBookService creates the book service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	sh := do.MustInvoke[*StoreHandle](i)
	ih := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBookService(sh.Store, ih.Index, validation.New(), log), nil
}

// ProvideSourceService creates the chapter source service.
func ProvideSourceService(i do.Injector) (*service.SourceService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	sh := do.MustInvoke[*StoreHandle](i)
	ch := do.MustInvoke[*CatalogClientHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSourceService(sh.Store, ch.Client, cfg.Ingest.ABSBackupPath, log), nil
}

// ProvideDraftService creates the chapter draft service.
func ProvideDraftService(i do.Injector) (*service.DraftService, error) {
	sh := do.MustInvoke[*StoreHandle](i)
	books := do.MustInvoke[*service.BookService](i)
	srcs := do.MustInvoke[*service.SourceService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewDraftService(sh.Store, books, srcs, validation.New(), log), nil
}

// ProvideSearchService creates the search service and rebuilds the index
// from the store so it reflects any writes made while the server was down.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	sh := do.MustInvoke[*StoreHandle](i)
	ih := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewSearchService(sh.Store, ih.Index, log)
	if err := svc.RebuildFromStore(context.Background()); err != nil {
		log.Warn("Search index rebuild failed", "error", err)
	}
	return svc, nil
}
