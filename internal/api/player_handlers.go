package api

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pagevoiceapp/pagevoice-server/internal/domain"
)

func (s *Server) registerPlayerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getPlayerSession",
		Method:      http.MethodGet,
		Path:        "/api/v1/player",
		Summary:     "Get the playback session",
		Tags:        []string{"Player"},
	}, s.handleGetSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "closePlayer",
		Method:      http.MethodDelete,
		Path:        "/api/v1/player",
		Summary:     "Close the player",
		Description: "Stops playback synchronously and destroys the session",
		Tags:        []string{"Player"},
	}, s.handleClosePlayer)

	huma.Register(s.api, huma.Operation{
		OperationID: "loadDocument",
		Method:      http.MethodPost,
		Path:        "/api/v1/player/load",
		Summary:     "Load a library document",
		Tags:        []string{"Player"},
	}, s.handleLoadDocument)

	huma.Register(s.api, huma.Operation{
		OperationID: "loadDemo",
		Method:      http.MethodPost,
		Path:        "/api/v1/player/demo",
		Summary:     "Load the demo text",
		Tags:        []string{"Player"},
	}, s.handleLoadDemo)

	huma.Register(s.api, huma.Operation{
		OperationID: "restoreSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/player/restore",
		Summary:     "Restore the last session",
		Description: "Revives the persisted snapshot after a restart, paused at its saved position",
		Tags:        []string{"Player"},
	}, s.handleRestoreSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "togglePlayback",
		Method:      http.MethodPost,
		Path:        "/api/v1/player/toggle",
		Summary:     "Toggle play/pause",
		Tags:        []string{"Player"},
	}, s.handleToggle)

	huma.Register(s.api, huma.Operation{
		OperationID: "seek",
		Method:      http.MethodPost,
		Path:        "/api/v1/player/seek",
		Summary:     "Seek relative",
		Description: "Skips forward or back by an estimated number of spoken seconds",
		Tags:        []string{"Player"},
	}, s.handleSeek)

	huma.Register(s.api, huma.Operation{
		OperationID: "setPosition",
		Method:      http.MethodPost,
		Path:        "/api/v1/player/position",
		Summary:     "Set position",
		Description: "Moves the cursor to a fraction of the text without resuming",
		Tags:        []string{"Player"},
	}, s.handleSetPosition)

	huma.Register(s.api, huma.Operation{
		OperationID: "setRate",
		Method:      http.MethodPost,
		Path:        "/api/v1/player/rate",
		Summary:     "Set playback rate",
		Tags:        []string{"Player"},
	}, s.handleSetRate)

	huma.Register(s.api, huma.Operation{
		OperationID: "resumePlayback",
		Method:      http.MethodPost,
		Path:        "/api/v1/player/resume",
		Summary:     "Resume playback",
		Tags:        []string{"Player"},
	}, s.handleResume)

	huma.Register(s.api, huma.Operation{
		OperationID: "bookmarkCurrentPosition",
		Method:      http.MethodPost,
		Path:        "/api/v1/player/bookmark",
		Summary:     "Bookmark the current position",
		Tags:        []string{"Player"},
	}, s.handleBookmarkCurrent)

	huma.Register(s.api, huma.Operation{
		OperationID: "exportAudio",
		Method:      http.MethodPost,
		Path:        "/api/v1/player/export",
		Summary:     "Export audio",
		Description: "Synthesizes the unspoken remainder of the session to a WAV file",
		Tags:        []string{"Player"},
	}, s.handleExportAudio)
}

// SessionResponse is the playback session state in API responses. The text
// buffer itself is not included; clients fetch it from the document.
type SessionResponse struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id,omitempty"`
	Position   int       `json:"position"`
	Progress   float64   `json:"progress"`
	Rate       float64   `json:"rate"`
	Playing    bool      `json:"playing"`
	TextLength int       `json:"text_length"`
	StartedAt  time.Time `json:"started_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func sessionResponse(session *domain.PlaybackSession) SessionResponse {
	return SessionResponse{
		ID:         session.ID,
		DocumentID: session.DocumentID,
		Position:   session.Position,
		Progress:   session.Progress(),
		Rate:       session.Rate,
		Playing:    session.Playing,
		TextLength: len(session.Text),
		StartedAt:  session.StartedAt,
		UpdatedAt:  session.UpdatedAt,
	}
}

// SessionOutput wraps the session state for Huma.
type SessionOutput struct {
	Body SessionResponse
}

func (s *Server) handleGetSession(ctx context.Context, _ *struct{}) (*SessionOutput, error) {
	session, err := s.services.Playback.Session(ctx, deviceID(ctx))
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: sessionResponse(session)}, nil
}

func (s *Server) handleClosePlayer(ctx context.Context, _ *struct{}) (*DeleteOutput, error) {
	if err := s.services.Playback.Close(ctx, deviceID(ctx)); err != nil {
		return nil, err
	}

	out := &DeleteOutput{}
	out.Body.Success = true
	return out, nil
}

// LoadDocumentInput contains the document to load.
type LoadDocumentInput struct {
	Body struct {
		DocumentID string `json:"document_id" minLength:"1" doc:"Library document to load"`
	}
}

func (s *Server) handleLoadDocument(ctx context.Context, input *LoadDocumentInput) (*SessionOutput, error) {
	session, err := s.services.Playback.LoadDocument(ctx, s.services.Library, deviceID(ctx), input.Body.DocumentID)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: sessionResponse(session)}, nil
}

func (s *Server) handleLoadDemo(ctx context.Context, _ *struct{}) (*SessionOutput, error) {
	session, err := s.services.Ingest.LoadDemo(ctx, deviceID(ctx))
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: sessionResponse(session)}, nil
}

func (s *Server) handleRestoreSession(ctx context.Context, _ *struct{}) (*SessionOutput, error) {
	session, err := s.services.Playback.RestoreSnapshot(ctx, s.services.Library, deviceID(ctx))
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: sessionResponse(session)}, nil
}

func (s *Server) handleToggle(ctx context.Context, _ *struct{}) (*SessionOutput, error) {
	session, err := s.services.Playback.Toggle(ctx, deviceID(ctx))
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: sessionResponse(session)}, nil
}

// SeekInput contains the relative seek request.
type SeekInput struct {
	Body struct {
		Seconds float64 `json:"seconds" doc:"Estimated spoken seconds to skip; negative skips back" example:"10"`
	}
}

func (s *Server) handleSeek(ctx context.Context, input *SeekInput) (*SessionOutput, error) {
	session, err := s.services.Playback.Seek(ctx, deviceID(ctx), input.Body.Seconds)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: sessionResponse(session)}, nil
}

// SetPositionInput contains the absolute position request.
type SetPositionInput struct {
	Body struct {
		Progress float64 `json:"progress" minimum:"0" maximum:"1" doc:"Target position as a fraction of the text"`
	}
}

func (s *Server) handleSetPosition(ctx context.Context, input *SetPositionInput) (*SessionOutput, error) {
	session, err := s.services.Playback.SetPosition(ctx, deviceID(ctx), input.Body.Progress)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: sessionResponse(session)}, nil
}

// SetRateInput contains the playback rate request.
type SetRateInput struct {
	Body struct {
		Rate float64 `json:"rate" doc:"One of the selectable playback rates" example:"1.25"`
	}
}

func (s *Server) handleSetRate(ctx context.Context, input *SetRateInput) (*SessionOutput, error) {
	session, err := s.services.Playback.SetRate(ctx, deviceID(ctx), input.Body.Rate)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: sessionResponse(session)}, nil
}

func (s *Server) handleResume(ctx context.Context, _ *struct{}) (*SessionOutput, error) {
	session, err := s.services.Playback.Resume(ctx, deviceID(ctx))
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: sessionResponse(session)}, nil
}

func (s *Server) handleBookmarkCurrent(ctx context.Context, _ *struct{}) (*BookmarkOutput, error) {
	bookmark, err := s.services.Playback.BookmarkCurrent(ctx, s.services.Library, deviceID(ctx))
	if err != nil {
		return nil, err
	}
	return &BookmarkOutput{Body: *bookmark}, nil
}

// ExportOutput wraps the audio export response for Huma.
type ExportOutput struct {
	Body struct {
		Path     string `json:"path" doc:"Server-side path of the exported WAV file"`
		Filename string `json:"filename"`
	}
}

func (s *Server) handleExportAudio(ctx context.Context, _ *struct{}) (*ExportOutput, error) {
	path, err := s.services.Playback.ExportAudio(ctx, deviceID(ctx))
	if err != nil {
		return nil, err
	}

	out := &ExportOutput{}
	out.Body.Path = path
	out.Body.Filename = filepath.Base(path)
	return out, nil
}
