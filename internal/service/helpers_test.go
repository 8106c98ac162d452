package service

import (
	"context"
	"crypto/rand"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pagevoiceapp/pagevoice-server/internal/auth"
	"github.com/pagevoiceapp/pagevoice-server/internal/config"
	"github.com/pagevoiceapp/pagevoice-server/internal/domain"
	domainerrors "github.com/pagevoiceapp/pagevoice-server/internal/errors"
	"github.com/pagevoiceapp/pagevoice-server/internal/notify"
	"github.com/pagevoiceapp/pagevoice-server/internal/pdf"
	"github.com/pagevoiceapp/pagevoice-server/internal/store"
)

// testEnv bundles the services under test over a throwaway store.
type testEnv struct {
	store        *store.Store
	entitlements *EntitlementService
	library      *LibraryService
	playback     *PlaybackService
	notifier     *notify.Center
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	st, err := store.New(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, st.Close())
	})

	key := make([]byte, 32)
	_, err = rand.Read(key)
	require.NoError(t, err)
	tokenService, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Auth.LoginDelay = time.Millisecond
	cfg.Billing.CheckoutURL = config.DefaultCheckoutURL

	notifier := notify.NewCenter(nil, logger)

	entitlements := NewEntitlementService(st, tokenService, notifier, nil, cfg, logger)
	library := NewLibraryService(st, entitlements, nil, nil, logger)
	playback := NewPlaybackService(st, entitlements, nil, notifier, nil, logger)

	return &testEnv{
		store:        st,
		entitlements: entitlements,
		library:      library,
		playback:     playback,
		notifier:     notifier,
	}
}

// grantPremium gives the device a premium record, optionally expiring.
func (e *testEnv) grantPremium(t *testing.T, deviceID string, expiresAt *time.Time) {
	t.Helper()
	require.NoError(t, e.entitlements.SetPremiumStatus(context.Background(), deviceID, expiresAt, "test"))
}

// addDocument stores a small document for the device.
func (e *testEnv) addDocument(t *testing.T, deviceID, name, text string) *domain.Document {
	t.Helper()
	doc := &domain.Document{
		DeviceID: deviceID,
		Name:     name,
		Text:     text,
		Pages:    1,
		Size:     int64(len(text)),
	}
	require.NoError(t, e.library.AddDocument(context.Background(), doc))
	return doc
}

// fakeExtractor returns canned extraction results.
type fakeExtractor struct {
	pages     int
	text      string
	err       error
	available bool
	calls     int
}

func (f *fakeExtractor) Extract(_ context.Context, _ []byte, progress pdf.ProgressFunc) (*pdf.Extraction, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if progress != nil {
		for i := 1; i <= f.pages; i++ {
			progress(i, f.pages)
		}
	}
	return &pdf.Extraction{Pages: f.pages, Text: f.text}, nil
}

func (f *fakeExtractor) Available() bool { return f.available }

// fakeSynthesizer records synthesize calls without shelling out.
type fakeSynthesizer struct {
	available bool
	path      string
	err       error
	calls     int
	lastText  string
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, text string, _ float64) (string, error) {
	f.calls++
	f.lastText = text
	if f.err != nil {
		return "", f.err
	}
	return f.path, nil
}

func (f *fakeSynthesizer) Available() bool { return f.available }

// gatedSynthesizer blocks every Synthesize call until the gate is closed.
type gatedSynthesizer struct {
	gate chan struct{}
	path string
}

func (g *gatedSynthesizer) Synthesize(_ context.Context, _ string, _ float64) (string, error) {
	<-g.gate
	return g.path, nil
}

func (g *gatedSynthesizer) Available() bool { return true }

// requireCode asserts err carries the given domain error code.
func requireCode(t *testing.T, err error, sentinel *domainerrors.Error) {
	t.Helper()
	require.Error(t, err)
	require.True(t, domainerrors.Is(err, sentinel), "expected %s, got %v", sentinel.Code, err)
}
