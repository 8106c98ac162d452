package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pagevoiceapp/pagevoice-server/internal/domain"
	domainerrors "github.com/pagevoiceapp/pagevoice-server/internal/errors"
	"github.com/pagevoiceapp/pagevoice-server/internal/id"
	"github.com/pagevoiceapp/pagevoice-server/internal/notify"
	"github.com/pagevoiceapp/pagevoice-server/internal/speech"
	"github.com/pagevoiceapp/pagevoice-server/internal/sse"
	"github.com/pagevoiceapp/pagevoice-server/internal/store"
)

// baseCharsPerSecond estimates spoken characters per second at rate 1.0.
// Roughly 180 words per minute at 5 characters per word.
const baseCharsPerSecond = 15.0

// freeExportLimit caps audio exports per device session on the free tier.
// Premium devices (unlimited_export enabled) have no cap.
const freeExportLimit = 3

// PlaybackService owns the per-device playback sessions. Sessions live in
// memory; a snapshot is persisted on every mutation so a device can resume
// after a server restart.
type PlaybackService struct {
	mu       sync.Mutex
	sessions map[string]*domain.PlaybackSession
	exports  map[string]int

	store        *store.Store
	entitlements *EntitlementService
	engine       speech.Synthesizer
	notifier     *notify.Center
	emitter      *sse.Manager
	logger       *slog.Logger
}

// NewPlaybackService creates a new playback service. A degraded engine (or
// nil) leaves transport controls working without audio export.
func NewPlaybackService(
	st *store.Store,
	entitlements *EntitlementService,
	engine speech.Synthesizer,
	notifier *notify.Center,
	emitter *sse.Manager,
	logger *slog.Logger,
) *PlaybackService {
	if engine == nil || !engine.Available() {
		logger.Warn("speech synthesis unavailable, playback runs in degraded mode")
	}
	return &PlaybackService{
		sessions:     make(map[string]*domain.PlaybackSession),
		exports:      make(map[string]int),
		store:        st,
		entitlements: entitlements,
		engine:       engine,
		notifier:     notifier,
		emitter:      emitter,
		logger:       logger,
	}
}

// LoadText creates a fresh session over the given text, replacing any
// existing session for the device. documentID may be empty for text that is
// not in the library (demo, capacity-overflow uploads).
func (s *PlaybackService) LoadText(ctx context.Context, deviceID, documentID, text string) (*domain.PlaybackSession, error) {
	if text == "" {
		return nil, domainerrors.Validation("nothing to play")
	}

	sessionID, err := id.Generate("ses")
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &domain.PlaybackSession{
		ID:         sessionID,
		DeviceID:   deviceID,
		DocumentID: documentID,
		Text:       text,
		Position:   0,
		Rate:       1.0,
		Playing:    false,
		StartedAt:  now,
		UpdatedAt:  now,
	}

	s.mu.Lock()
	s.sessions[deviceID] = session
	snapshot := *session
	s.mu.Unlock()

	s.persistAndBroadcast(ctx, &snapshot)

	s.logger.Info("playback session loaded",
		slog.String("device_id", deviceID),
		slog.String("document_id", documentID),
		slog.Int("text_len", len(text)))
	return &snapshot, nil
}

// LoadDocument loads a library document into the player.
func (s *PlaybackService) LoadDocument(ctx context.Context, library *LibraryService, deviceID, documentID string) (*domain.PlaybackSession, error) {
	doc, err := library.GetDocument(ctx, deviceID, documentID)
	if err != nil {
		return nil, err
	}
	return s.LoadText(ctx, deviceID, doc.ID, doc.Text)
}

// Session returns a copy of the device's current session. Callers may read
// it freely; the live session stays behind the service lock.
func (s *PlaybackService) Session(_ context.Context, deviceID string) (*domain.PlaybackSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[deviceID]
	if !ok {
		return nil, domainerrors.NotFound("no playback session")
	}
	snapshot := *session
	return &snapshot, nil
}

// Close stops playback synchronously and destroys the session along with its
// persisted snapshot.
func (s *PlaybackService) Close(ctx context.Context, deviceID string) error {
	s.mu.Lock()
	_, ok := s.sessions[deviceID]
	delete(s.sessions, deviceID)
	s.mu.Unlock()

	if !ok {
		return domainerrors.NotFound("no playback session")
	}

	if err := s.store.DeletePlaybackSnapshot(ctx, deviceID); err != nil {
		return domainerrors.Storage("delete playback snapshot").WithCause(err)
	}

	s.logger.Info("playback session closed", slog.String("device_id", deviceID))
	return nil
}

// Toggle flips play/pause.
func (s *PlaybackService) Toggle(ctx context.Context, deviceID string) (*domain.PlaybackSession, error) {
	return s.mutate(ctx, deviceID, func(session *domain.PlaybackSession) error {
		session.Playing = !session.Playing
		return nil
	})
}

// Seek moves the cursor by deltaSeconds of estimated speech, scaled by the
// session's rate. Positive skips forward, negative back.
func (s *PlaybackService) Seek(ctx context.Context, deviceID string, deltaSeconds float64) (*domain.PlaybackSession, error) {
	return s.mutate(ctx, deviceID, func(session *domain.PlaybackSession) error {
		deltaChars := int(deltaSeconds * baseCharsPerSecond * session.Rate)
		session.Position = session.ClampPosition(session.Position + deltaChars)
		return nil
	})
}

// SetPosition moves the cursor to a fraction of the text. Dragging the
// progress bar never resumes a paused session.
func (s *PlaybackService) SetPosition(ctx context.Context, deviceID string, progress float64) (*domain.PlaybackSession, error) {
	if progress < 0 || progress > 1 {
		return nil, domainerrors.Validation("progress must be between 0 and 1")
	}
	return s.mutate(ctx, deviceID, func(session *domain.PlaybackSession) error {
		session.Position = session.ClampPosition(int(progress * float64(len(session.Text))))
		return nil
	})
}

// SetRate switches to one of the fixed playback rates.
func (s *PlaybackService) SetRate(ctx context.Context, deviceID string, rate float64) (*domain.PlaybackSession, error) {
	if !domain.ValidPlaybackRate(rate) {
		return nil, domainerrors.Validation(fmt.Sprintf("rate %.2f is not selectable", rate))
	}
	return s.mutate(ctx, deviceID, func(session *domain.PlaybackSession) error {
		session.Rate = rate
		return nil
	})
}

// Resume restarts speech from the cursor after a progress-bar drag release.
func (s *PlaybackService) Resume(ctx context.Context, deviceID string) (*domain.PlaybackSession, error) {
	return s.mutate(ctx, deviceID, func(session *domain.PlaybackSession) error {
		session.Playing = true
		return nil
	})
}

// RestoreSnapshot revives a persisted session after a restart. The text
// buffer is reloaded from the library document; snapshots of unstored text
// (demo) cannot be revived and are dropped.
func (s *PlaybackService) RestoreSnapshot(ctx context.Context, library *LibraryService, deviceID string) (*domain.PlaybackSession, error) {
	snapshot, err := s.store.GetPlaybackSnapshot(ctx, deviceID)
	if err != nil {
		if domainerrors.Is(err, store.ErrSessionNotFound) {
			return nil, domainerrors.NotFound("no playback session")
		}
		return nil, domainerrors.Storage("get playback snapshot").WithCause(err)
	}

	if snapshot.DocumentID == "" {
		_ = s.store.DeletePlaybackSnapshot(ctx, deviceID)
		return nil, domainerrors.NotFound("no playback session")
	}

	doc, err := library.GetDocument(ctx, deviceID, snapshot.DocumentID)
	if err != nil {
		return nil, err
	}

	snapshot.Text = doc.Text
	snapshot.Position = snapshot.ClampPosition(snapshot.Position)
	snapshot.Playing = false

	s.mu.Lock()
	s.sessions[deviceID] = snapshot
	restored := *snapshot
	s.mu.Unlock()

	return &restored, nil
}

// ExportAudio synthesizes the unspoken remainder of the session to a WAV
// file and returns its path. Free tier exports are capped; premium devices
// with unlimited_export are not.
func (s *PlaybackService) ExportAudio(ctx context.Context, deviceID string) (string, error) {
	if s.engine == nil || !s.engine.Available() {
		return "", domainerrors.Unsupported("audio export is not available on this server")
	}

	session, err := s.Session(ctx, deviceID)
	if err != nil {
		return "", err
	}

	enabled, err := s.entitlements.IsFeatureEnabled(ctx, deviceID, domain.FeatureUnlimitedExport)
	if err != nil {
		return "", err
	}
	if !enabled {
		// Reserve the slot before synthesizing so concurrent exports cannot
		// both pass the check. A failed synthesis refunds it.
		s.mu.Lock()
		if s.exports[deviceID] >= freeExportLimit {
			s.mu.Unlock()
			if s.notifier != nil {
				s.notifier.Warning(deviceID, "Export limit reached. Upgrade for unlimited exports.")
			}
			return "", domainerrors.LimitExceeded("export limit reached on the free tier")
		}
		s.exports[deviceID]++
		s.mu.Unlock()
	}

	path, err := s.engine.Synthesize(ctx, session.Remaining(), session.Rate)
	if err != nil {
		if !enabled {
			s.mu.Lock()
			s.exports[deviceID]--
			s.mu.Unlock()
		}
		return "", err
	}

	if s.notifier != nil {
		s.notifier.Success(deviceID, "Audio export ready")
	}

	s.logger.Info("audio exported",
		slog.String("device_id", deviceID),
		slog.String("path", path))
	return path, nil
}

// BookmarkCurrent bookmarks the session's current position in its library
// document. Demo and unstored text cannot be bookmarked.
func (s *PlaybackService) BookmarkCurrent(ctx context.Context, library *LibraryService, deviceID string) (*domain.Bookmark, error) {
	session, err := s.Session(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	if session.DocumentID == "" {
		return nil, domainerrors.Validation("current text is not in the library")
	}
	return library.AddBookmark(ctx, deviceID, session.DocumentID, session.Position)
}

// SpeechAvailable reports whether the synthesizer is usable.
func (s *PlaybackService) SpeechAvailable() bool {
	return s.engine != nil && s.engine.Available()
}

// mutate applies fn to the device's session under the lock, then persists
// and broadcasts the new state. It returns a copy taken while the lock was
// still held, so callers never touch the live session.
func (s *PlaybackService) mutate(ctx context.Context, deviceID string, fn func(*domain.PlaybackSession) error) (*domain.PlaybackSession, error) {
	s.mu.Lock()
	session, ok := s.sessions[deviceID]
	if !ok {
		s.mu.Unlock()
		return nil, domainerrors.NotFound("no playback session")
	}
	if err := fn(session); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	session.UpdatedAt = time.Now()
	snapshot := *session
	s.mu.Unlock()

	s.persistAndBroadcast(ctx, &snapshot)
	return &snapshot, nil
}

// persistAndBroadcast saves a resume snapshot and pushes the state to the
// event stream. Snapshot failures are warnings: playback state is primarily
// in memory and resume is best effort.
func (s *PlaybackService) persistAndBroadcast(ctx context.Context, session *domain.PlaybackSession) {
	if err := s.store.SavePlaybackSnapshot(ctx, session); err != nil {
		s.logger.Warn("failed to save playback snapshot",
			slog.String("device_id", session.DeviceID),
			slog.String("error", err.Error()))
	}

	if s.emitter != nil {
		s.emitter.Emit(sse.NewPlaybackStateEvent(session.DeviceID, sse.PlaybackStateEventData{
			DocumentID: session.DocumentID,
			Playing:    session.Playing,
			Progress:   session.Progress(),
			Rate:       session.Rate,
		}))
	}
}
