// Package api provides the HTTP API server and handlers for PageVoice.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pagevoiceapp/pagevoice-server/internal/auth"
	"github.com/pagevoiceapp/pagevoice-server/internal/config"
	"github.com/pagevoiceapp/pagevoice-server/internal/notify"
	"github.com/pagevoiceapp/pagevoice-server/internal/ratelimit"
	"github.com/pagevoiceapp/pagevoice-server/internal/search"
	"github.com/pagevoiceapp/pagevoice-server/internal/service"
	"github.com/pagevoiceapp/pagevoice-server/internal/sse"
	"github.com/pagevoiceapp/pagevoice-server/internal/store"
)

// Services bundles the application services used by the handlers.
type Services struct {
	Entitlements *service.EntitlementService
	Library      *service.LibraryService
	Ingest       *service.IngestService
	Playback     *service.PlaybackService
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store       *store.Store
	tokens      *auth.TokenService
	services    *Services
	notifier    *notify.Center
	dialogs     *notify.DialogTracker
	searchIndex *search.Index
	sseManager  *sse.Manager
	sseHandler  *sse.Handler

	// loginLimiter throttles the simulated login per device.
	loginLimiter *ratelimit.KeyedRateLimiter
	maxFileSize  int64

	router *chi.Mux
	api    huma.API
	logger *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	st *store.Store,
	tokens *auth.TokenService,
	services *Services,
	notifier *notify.Center,
	dialogs *notify.DialogTracker,
	searchIndex *search.Index,
	sseManager *sse.Manager,
	cfg *config.Config,
	logger *slog.Logger,
) *Server {
	router := chi.NewRouter()

	humaConfig := huma.DefaultConfig(cfg.Server.Name, "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}

	s := &Server{
		store:        st,
		tokens:       tokens,
		services:     services,
		notifier:     notifier,
		dialogs:      dialogs,
		searchIndex:  searchIndex,
		sseManager:   sseManager,
		loginLimiter: ratelimit.New(1, 5),
		maxFileSize:  cfg.Ingest.MaxFileSize,
		router:       router,
		logger:       logger,
	}
	s.sseHandler = sse.NewHandler(sseManager, deviceFromRequest, logger)

	// Middleware must be attached before humachi.New registers huma's
	// built-in routes; chi panics if Use is called after any route exists.
	s.setupMiddleware()

	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Stop releases handler-owned resources.
func (s *Server) Stop() {
	s.loginLimiter.Stop()
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", deviceIDHeader},
		ExposedHeaders: []string{deviceIDHeader},
		MaxAge:         300,
	}))
	s.router.Use(s.resolveDevice)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerPremiumRoutes()
	s.registerDocumentRoutes()
	s.registerPlayerRoutes()
	s.registerSearchRoutes()
	s.registerNotificationRoutes()

	// The event stream and multipart upload bypass huma: SSE needs a raw
	// streaming writer and huma doesn't easily support multipart forms.
	s.router.Get("/api/v1/events", s.sseHandler.ServeHTTP)
	s.router.Post("/api/v1/documents", s.handleUploadDocument)
}
