// Package di provides dependency injection configuration for the PageVoice
// server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/pagevoiceapp/pagevoice-server/internal/auth"
	"github.com/pagevoiceapp/pagevoice-server/internal/config"
	"github.com/pagevoiceapp/pagevoice-server/internal/di/providers"
	"github.com/pagevoiceapp/pagevoice-server/internal/logger"
	"github.com/pagevoiceapp/pagevoice-server/internal/notify"
	"github.com/pagevoiceapp/pagevoice-server/internal/pdf"
	"github.com/pagevoiceapp/pagevoice-server/internal/service"
	"github.com/pagevoiceapp/pagevoice-server/internal/speech"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideTokenService)

	// Database and event layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Engines
	do.Provide(injector, providers.ProvideExtractor)
	do.Provide(injector, providers.ProvideSpeechEngine)

	// Notification surfaces
	do.Provide(injector, providers.ProvideNotifyCenter)
	do.Provide(injector, providers.ProvideDialogTracker)

	// Business services
	do.Provide(injector, providers.ProvideEntitlementService)
	do.Provide(injector, providers.ProvideLibraryService)
	do.Provide(injector, providers.ProvidePlaybackService)
	do.Provide(injector, providers.ProvideIngestService)

	// Workers
	do.Provide(injector, providers.ProvideInboxWatcher)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle
// management. This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*pdf.Reader](injector)
	_ = do.MustInvoke[*speech.Engine](injector)
	_ = do.MustInvoke[*providers.NotifyCenterHandle](injector)
	_ = do.MustInvoke[*notify.DialogTracker](injector)

	// Business services
	_ = do.MustInvoke[*service.EntitlementService](injector)
	_ = do.MustInvoke[*service.LibraryService](injector)
	_ = do.MustInvoke[*service.PlaybackService](injector)
	_ = do.MustInvoke[*service.IngestService](injector)

	// Workers
	_ = do.MustInvoke[*providers.InboxWatcherHandle](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
