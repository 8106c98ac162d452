package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/pagevoiceapp/pagevoice-server/internal/auth"
	"github.com/pagevoiceapp/pagevoice-server/internal/config"
	"github.com/pagevoiceapp/pagevoice-server/internal/logger"
	"github.com/pagevoiceapp/pagevoice-server/internal/notify"
	"github.com/pagevoiceapp/pagevoice-server/internal/pdf"
	"github.com/pagevoiceapp/pagevoice-server/internal/service"
	"github.com/pagevoiceapp/pagevoice-server/internal/speech"
)

// NotifyCenterHandle wraps the notification center with its sweeper.
type NotifyCenterHandle struct {
	*notify.Center
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *NotifyCenterHandle) Shutdown() error {
	h.cancel()
	return nil
}

// ProvideNotifyCenter provides the toast notification center with its
// background sweeper running.
func ProvideNotifyCenter(i do.Injector) (*NotifyCenterHandle, error) {
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	center := notify.NewCenter(sseHandle.Manager, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	go center.StartSweeper(ctx, notificationSweepInterval)

	return &NotifyCenterHandle{Center: center, cancel: cancel}, nil
}

// ProvideDialogTracker provides the per-device dialog tracker.
func ProvideDialogTracker(i do.Injector) (*notify.DialogTracker, error) {
	return notify.NewDialogTracker(), nil
}

// ProvideExtractor provides the PDF text extractor.
func ProvideExtractor(i do.Injector) (*pdf.Reader, error) {
	return pdf.NewReader(), nil
}

// ProvideSpeechEngine provides the external speech synthesis engine.
func ProvideSpeechEngine(i do.Injector) (*speech.Engine, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return speech.NewEngine(cfg.Speech, log.Logger)
}

// ProvideEntitlementService provides the premium entitlement service.
func ProvideEntitlementService(i do.Injector) (*service.EntitlementService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	notifyHandle := do.MustInvoke[*NotifyCenterHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewEntitlementService(
		storeHandle.Store,
		tokenService,
		notifyHandle.Center,
		sseHandle.Manager,
		cfg,
		log.Logger,
	), nil
}

// ProvideLibraryService provides the document library service.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	entitlements := do.MustInvoke[*service.EntitlementService](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLibraryService(
		storeHandle.Store,
		entitlements,
		indexHandle.Index,
		sseHandle.Manager,
		log.Logger,
	), nil
}

// ProvidePlaybackService provides the playback session service.
func ProvidePlaybackService(i do.Injector) (*service.PlaybackService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	entitlements := do.MustInvoke[*service.EntitlementService](i)
	engine := do.MustInvoke[*speech.Engine](i)
	notifyHandle := do.MustInvoke[*NotifyCenterHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPlaybackService(
		storeHandle.Store,
		entitlements,
		engine,
		notifyHandle.Center,
		sseHandle.Manager,
		log.Logger,
	), nil
}

// ProvideIngestService provides the PDF ingestion service.
func ProvideIngestService(i do.Injector) (*service.IngestService, error) {
	extractor := do.MustInvoke[*pdf.Reader](i)
	library := do.MustInvoke[*service.LibraryService](i)
	playback := do.MustInvoke[*service.PlaybackService](i)
	notifyHandle := do.MustInvoke[*NotifyCenterHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewIngestService(
		extractor,
		library,
		playback,
		notifyHandle.Center,
		sseHandle.Manager,
		cfg.Ingest,
		log.Logger,
	), nil
}
