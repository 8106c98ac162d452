package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagevoiceapp/pagevoice-server/internal/domain"
	domainerrors "github.com/pagevoiceapp/pagevoice-server/internal/errors"
)

const playbackText = "Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt ut labore et dolore magna aliqua."

func loadSession(t *testing.T, env *testEnv, deviceID string) *domain.PlaybackSession {
	t.Helper()
	session, err := env.playback.LoadText(context.Background(), deviceID, "", playbackText)
	require.NoError(t, err)
	return session
}

func TestLoadText_FreshSession(t *testing.T) {
	env := newTestEnv(t)

	session := loadSession(t, env, "device-1")
	assert.Equal(t, 0, session.Position)
	assert.Equal(t, 1.0, session.Rate)
	assert.False(t, session.Playing)

	// Loading replaces the previous session.
	again := loadSession(t, env, "device-1")
	assert.NotEqual(t, session.ID, again.ID)
}

func TestLoadText_Empty(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.playback.LoadText(context.Background(), "device-1", "", "")
	requireCode(t, err, domainerrors.ErrValidation)
}

func TestToggle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	loadSession(t, env, "device-1")

	session, err := env.playback.Toggle(ctx, "device-1")
	require.NoError(t, err)
	assert.True(t, session.Playing)

	session, err = env.playback.Toggle(ctx, "device-1")
	require.NoError(t, err)
	assert.False(t, session.Playing)
}

func TestSeek_ScalesWithRate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	loadSession(t, env, "device-1")

	session, err := env.playback.Seek(ctx, "device-1", 2)
	require.NoError(t, err)
	assert.Equal(t, int(2*baseCharsPerSecond), session.Position)

	_, err = env.playback.SetRate(ctx, "device-1", 2.0)
	require.NoError(t, err)

	session, err = env.playback.Seek(ctx, "device-1", 1)
	require.NoError(t, err)
	assert.Equal(t, int(2*baseCharsPerSecond)+int(1*baseCharsPerSecond*2.0), session.Position)
}

func TestSeek_ClampsToBounds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	loadSession(t, env, "device-1")

	session, err := env.playback.Seek(ctx, "device-1", -10)
	require.NoError(t, err)
	assert.Equal(t, 0, session.Position)

	session, err = env.playback.Seek(ctx, "device-1", 10000)
	require.NoError(t, err)
	assert.Equal(t, len(playbackText), session.Position)
}

func TestSetPosition_NeverResumes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	loadSession(t, env, "device-1")

	session, err := env.playback.SetPosition(ctx, "device-1", 0.5)
	require.NoError(t, err)
	assert.Equal(t, len(playbackText)/2, session.Position)
	assert.False(t, session.Playing)

	_, err = env.playback.SetPosition(ctx, "device-1", 1.5)
	requireCode(t, err, domainerrors.ErrValidation)
}

func TestResume(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	loadSession(t, env, "device-1")

	session, err := env.playback.Resume(ctx, "device-1")
	require.NoError(t, err)
	assert.True(t, session.Playing)
}

func TestSetRate_FixedSetOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	loadSession(t, env, "device-1")

	for _, rate := range domain.PlaybackRates {
		session, err := env.playback.SetRate(ctx, "device-1", rate)
		require.NoError(t, err)
		assert.Equal(t, rate, session.Rate)
	}

	_, err := env.playback.SetRate(ctx, "device-1", 1.1)
	requireCode(t, err, domainerrors.ErrValidation)
}

func TestClose_DestroysSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	loadSession(t, env, "device-1")

	require.NoError(t, env.playback.Close(ctx, "device-1"))

	_, err := env.playback.Session(ctx, "device-1")
	requireCode(t, err, domainerrors.ErrNotFound)

	err = env.playback.Close(ctx, "device-1")
	requireCode(t, err, domainerrors.ErrNotFound)
}

func TestOperationsWithoutSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.playback.Toggle(ctx, "device-1")
	requireCode(t, err, domainerrors.ErrNotFound)
	_, err = env.playback.Seek(ctx, "device-1", 10)
	requireCode(t, err, domainerrors.ErrNotFound)
	_, err = env.playback.SetRate(ctx, "device-1", 1.5)
	requireCode(t, err, domainerrors.ErrNotFound)
}

func TestSession_ReturnsDetachedCopies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	loadSession(t, env, "device-1")

	before, err := env.playback.Seek(ctx, "device-1", 2)
	require.NoError(t, err)
	position := before.Position

	_, err = env.playback.Seek(ctx, "device-1", 2)
	require.NoError(t, err)

	// Later mutations must not show through an already-returned session.
	assert.Equal(t, position, before.Position)

	copied, err := env.playback.Session(ctx, "device-1")
	require.NoError(t, err)
	copied.Position = 0
	copied.Playing = true

	current, err := env.playback.Session(ctx, "device-1")
	require.NoError(t, err)
	assert.Equal(t, 2*position, current.Position)
	assert.False(t, current.Playing)
}

func TestConcurrentTransportControls(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	loadSession(t, env, "device-1")

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 50 {
				_, err := env.playback.Toggle(ctx, "device-1")
				assert.NoError(t, err)
			}
		}()
		go func() {
			defer wg.Done()
			for range 50 {
				_, err := env.playback.Seek(ctx, "device-1", 1)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	session, err := env.playback.Session(ctx, "device-1")
	require.NoError(t, err)
	assert.LessOrEqual(t, session.Position, len(playbackText))
	assert.GreaterOrEqual(t, session.Position, 0)
}

func TestRestoreSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc := env.addDocument(t, "device-1", "resume.pdf", playbackText)
	_, err := env.playback.LoadText(ctx, "device-1", doc.ID, doc.Text)
	require.NoError(t, err)
	_, err = env.playback.Seek(ctx, "device-1", 3)
	require.NoError(t, err)

	// Simulate a restart by dropping the in-memory session.
	env.playback.mu.Lock()
	delete(env.playback.sessions, "device-1")
	env.playback.mu.Unlock()

	restored, err := env.playback.RestoreSnapshot(ctx, env.library, "device-1")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, restored.DocumentID)
	assert.Equal(t, int(3*baseCharsPerSecond), restored.Position)
	assert.False(t, restored.Playing)
	assert.Equal(t, playbackText, restored.Text)
}

func TestRestoreSnapshot_DemoNotRevivable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	loadSession(t, env, "device-1") // no document ID

	env.playback.mu.Lock()
	delete(env.playback.sessions, "device-1")
	env.playback.mu.Unlock()

	_, err := env.playback.RestoreSnapshot(ctx, env.library, "device-1")
	requireCode(t, err, domainerrors.ErrNotFound)
}

func TestBookmarkCurrent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc := env.addDocument(t, "device-1", "marks.pdf", playbackText)
	_, err := env.playback.LoadText(ctx, "device-1", doc.ID, doc.Text)
	require.NoError(t, err)
	_, err = env.playback.Seek(ctx, "device-1", 2)
	require.NoError(t, err)

	b, err := env.playback.BookmarkCurrent(ctx, env.library, "device-1")
	require.NoError(t, err)
	assert.Equal(t, int(2*baseCharsPerSecond), b.Position)
	assert.True(t, strings.HasPrefix(playbackText[b.Position:], b.Text))
}

func TestBookmarkCurrent_DemoRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	loadSession(t, env, "device-1")

	_, err := env.playback.BookmarkCurrent(ctx, env.library, "device-1")
	requireCode(t, err, domainerrors.ErrValidation)
}

func TestExportAudio_Degraded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	loadSession(t, env, "device-1")

	_, err := env.playback.ExportAudio(ctx, "device-1")
	requireCode(t, err, domainerrors.ErrUnsupported)
}

func TestExportAudio_FreeTierCapped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	engine := &fakeSynthesizer{available: true, path: "/tmp/out.wav"}
	env.playback.engine = engine
	loadSession(t, env, "device-1")

	for range freeExportLimit {
		path, err := env.playback.ExportAudio(ctx, "device-1")
		require.NoError(t, err)
		assert.Equal(t, "/tmp/out.wav", path)
	}

	_, err := env.playback.ExportAudio(ctx, "device-1")
	requireCode(t, err, domainerrors.ErrLimitExceeded)
	assert.Equal(t, freeExportLimit, engine.calls)
}

func TestExportAudio_ConcurrentStaysCapped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	gate := make(chan struct{})
	env.playback.engine = &gatedSynthesizer{gate: gate, path: "/tmp/out.wav"}
	loadSession(t, env, "device-1")

	const attempts = freeExportLimit + 2
	results := make(chan error, attempts)
	for range attempts {
		go func() {
			_, err := env.playback.ExportAudio(ctx, "device-1")
			results <- err
		}()
	}
	close(gate)

	var succeeded, limited int
	for range attempts {
		err := <-results
		if err == nil {
			succeeded++
			continue
		}
		requireCode(t, err, domainerrors.ErrLimitExceeded)
		limited++
	}
	assert.Equal(t, freeExportLimit, succeeded)
	assert.Equal(t, attempts-freeExportLimit, limited)
}

func TestExportAudio_FailureRefundsSlot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.playback.engine = &fakeSynthesizer{available: true, err: errors.New("synth crashed")}
	loadSession(t, env, "device-1")

	// Failed exports never consume the free-tier allowance.
	for range freeExportLimit + 1 {
		_, err := env.playback.ExportAudio(ctx, "device-1")
		require.Error(t, err)
		require.False(t, domainerrors.Is(err, domainerrors.ErrLimitExceeded))
	}
}

func TestExportAudio_PremiumUnlimited(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.grantPremium(t, "device-1", nil)
	engine := &fakeSynthesizer{available: true, path: "/tmp/out.wav"}
	env.playback.engine = engine
	loadSession(t, env, "device-1")

	for range freeExportLimit + 2 {
		_, err := env.playback.ExportAudio(ctx, "device-1")
		require.NoError(t, err)
	}
}

func TestExportAudio_SynthesizesRemainder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	engine := &fakeSynthesizer{available: true, path: "/tmp/out.wav"}
	env.playback.engine = engine
	loadSession(t, env, "device-1")

	_, err := env.playback.SetPosition(ctx, "device-1", 0.5)
	require.NoError(t, err)

	_, err = env.playback.ExportAudio(ctx, "device-1")
	require.NoError(t, err)
	assert.Equal(t, playbackText[len(playbackText)/2:], engine.lastText)
}
