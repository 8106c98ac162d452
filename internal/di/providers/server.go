package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/pagevoiceapp/pagevoice-server/internal/api"
	"github.com/pagevoiceapp/pagevoice-server/internal/auth"
	"github.com/pagevoiceapp/pagevoice-server/internal/config"
	"github.com/pagevoiceapp/pagevoice-server/internal/logger"
	"github.com/pagevoiceapp/pagevoice-server/internal/notify"
	"github.com/pagevoiceapp/pagevoice-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	apiServer *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.apiServer.Stop()
	return err
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	notifyHandle := do.MustInvoke[*NotifyCenterHandle](i)
	dialogs := do.MustInvoke[*notify.DialogTracker](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Entitlements: do.MustInvoke[*service.EntitlementService](i),
		Library:      do.MustInvoke[*service.LibraryService](i),
		Ingest:       do.MustInvoke[*service.IngestService](i),
		Playback:     do.MustInvoke[*service.PlaybackService](i),
	}

	apiServer := api.NewServer(
		storeHandle.Store,
		tokenService,
		services,
		notifyHandle.Center,
		dialogs,
		indexHandle.Index,
		sseHandle.Manager,
		cfg,
		log.Logger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, apiServer: apiServer}, nil
}
