package providers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/samber/do/v2"

	"github.com/cuemarkapp/cuemark-server/internal/api"
	"github.com/cuemarkapp/cuemark-server/internal/config"
	"github.com/cuemarkapp/cuemark-server/internal/domain"
	"github.com/cuemarkapp/cuemark-server/internal/id"
	"github.com/cuemarkapp/cuemark-server/internal/logger"
	"github.com/cuemarkapp/cuemark-server/internal/mdns"
	"github.com/cuemarkapp/cuemark-server/internal/service"
)

// HTTPServerHandle owns the HTTP listener goroutine.
type HTTPServerHandle struct {
	Server *http.Server
	API    *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.API.Close()
	return err
}

// ProvideHTTPServer builds the API server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sh := do.MustInvoke[*StoreHandle](i)

	services := api.Services{
		Auth:   do.MustInvoke[*service.AuthService](i),
		Book:   do.MustInvoke[*service.BookService](i),
		Source: do.MustInvoke[*service.SourceService](i),
		Draft:  do.MustInvoke[*service.DraftService](i),
		Search: do.MustInvoke[*service.SearchService](i),
	}

	apiServer := api.NewServer(sh.Store, services, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, API: apiServer}, nil
}

// MDNSHandle owns the mDNS advertisement.
type MDNSHandle struct {
	service *mdns.Service
}

// Shutdown implements do.Shutdownable.
func (h *MDNSHandle) Shutdown() error {
	if h.service != nil {
		h.service.Stop()
	}
	return nil
}

// ProvideMDNSService advertises the server on the local network. The
// instance record is created on first boot so clients can identify the
// server before setup completes.
func ProvideMDNSService(i do.Injector) (*MDNSHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sh := do.MustInvoke[*StoreHandle](i)

	if !cfg.Server.AdvertiseMDNS {
		return &MDNSHandle{}, nil
	}

	ctx := context.Background()
	inst, err := sh.Store.GetInstance(ctx)
	if err != nil {
		instanceID, idErr := id.Generate("inst")
		if idErr != nil {
			return nil, idErr
		}
		inst = domain.NewInstance(instanceID, cfg.Server.Name)
		if putErr := sh.Store.PutInstance(ctx, inst); putErr != nil {
			return nil, putErr
		}
	}

	port, err := strconv.Atoi(cfg.Server.Port)
	if err != nil {
		log.Warn("Invalid port for mDNS advertisement", "port", cfg.Server.Port)
		return &MDNSHandle{}, nil
	}

	svc := mdns.NewService(log.Logger)
	if err := svc.Start(inst, port); err != nil {
		// Advertisement is best effort; the server runs without it.
		log.Warn("mDNS advertisement failed", "error", err)
		return &MDNSHandle{}, nil
	}
	return &MDNSHandle{service: svc}, nil
}
