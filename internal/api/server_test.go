package api

import (
	"context"
	"crypto/rand"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagevoiceapp/pagevoice-server/internal/auth"
	"github.com/pagevoiceapp/pagevoice-server/internal/config"
	"github.com/pagevoiceapp/pagevoice-server/internal/notify"
	"github.com/pagevoiceapp/pagevoice-server/internal/pdf"
	"github.com/pagevoiceapp/pagevoice-server/internal/search"
	"github.com/pagevoiceapp/pagevoice-server/internal/service"
	"github.com/pagevoiceapp/pagevoice-server/internal/sse"
	"github.com/pagevoiceapp/pagevoice-server/internal/store"
)

// stubExtractor stands in for the PDF reader so handler tests do not need
// real PDF payloads.
type stubExtractor struct {
	pages int
	text  string
	err   error
}

func (e *stubExtractor) Available() bool { return true }

func (e *stubExtractor) Extract(_ context.Context, _ []byte, progress pdf.ProgressFunc) (*pdf.Extraction, error) {
	if e.err != nil {
		return nil, e.err
	}
	if progress != nil {
		for page := 1; page <= e.pages; page++ {
			progress(page, e.pages)
		}
	}
	return &pdf.Extraction{Pages: e.pages, Text: e.text}, nil
}

type testServer struct {
	server    *Server
	api       humatest.TestAPI
	extractor *stubExtractor
	notifier  *notify.Center
}

// deviceHeader is the canonical test device identity header.
const deviceHeader = "X-Device-ID: device-1"

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	dataPath := t.TempDir()

	st, err := store.New(dataPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	key := make([]byte, 32)
	_, err = rand.Read(key)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	index, err := search.NewIndex(search.Options{DataPath: dataPath, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	cfg := &config.Config{}
	cfg.Server.Name = "PageVoice Test"
	cfg.Auth.LoginDelay = time.Millisecond
	cfg.Billing.CheckoutURL = config.DefaultCheckoutURL
	cfg.Ingest.MaxFileSize = 1 << 20

	sseManager := sse.NewManager(logger)
	notifier := notify.NewCenter(sseManager, logger)
	dialogs := notify.NewDialogTracker()

	entitlements := service.NewEntitlementService(st, tokens, notifier, sseManager, cfg, logger)
	library := service.NewLibraryService(st, entitlements, index, sseManager, logger)
	playback := service.NewPlaybackService(st, entitlements, nil, notifier, sseManager, logger)
	extractor := &stubExtractor{pages: 2, text: "hello world from the stub extractor"}
	ingest := service.NewIngestService(extractor, library, playback, notifier, sseManager, cfg.Ingest, logger)

	services := &Services{
		Entitlements: entitlements,
		Library:      library,
		Ingest:       ingest,
		Playback:     playback,
	}

	s := NewServer(st, tokens, services, notifier, dialogs, index, sseManager, cfg, logger)
	t.Cleanup(s.Stop)

	return &testServer{
		server:    s,
		api:       humatest.Wrap(t, s.api),
		extractor: extractor,
		notifier:  notifier,
	}
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"status":"healthy"`)
	assert.Contains(t, resp.Body.String(), `"database"`)
}

func TestGetCapabilities(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.api.Get("/api/v1/capabilities", deviceHeader)
	assert.Equal(t, http.StatusOK, resp.Code)
	// No speech engine in tests; PDF and search are wired.
	assert.Contains(t, resp.Body.String(), `"speech":false`)
	assert.Contains(t, resp.Body.String(), `"pdf":true`)
	assert.Contains(t, resp.Body.String(), `"search":true`)
}

func TestDeviceIdentity_EchoedAndGenerated(t *testing.T) {
	ts := newTestServer(t)

	// Header identity is echoed back.
	resp := ts.api.Get("/api/v1/premium/status", deviceHeader)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "device-1", resp.Header().Get("X-Device-ID"))

	// A client with no identity gets a fresh one.
	resp = ts.api.Get("/api/v1/premium/status")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.NotEmpty(t, resp.Header().Get("X-Device-ID"))
	assert.NotEqual(t, "device-1", resp.Header().Get("X-Device-ID"))
}
