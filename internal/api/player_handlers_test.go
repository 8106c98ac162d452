package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadDemo(t *testing.T, ts *testServer) SessionResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/player/demo", deviceHeader, map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var session SessionResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &session))
	return session
}

func TestPlayerLifecycle(t *testing.T) {
	ts := newTestServer(t)

	// No session yet.
	resp := ts.api.Get("/api/v1/player", deviceHeader)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	session := loadDemo(t, ts)
	assert.Empty(t, session.DocumentID)
	assert.Equal(t, 1.0, session.Rate)
	assert.False(t, session.Playing)
	assert.Positive(t, session.TextLength)

	resp = ts.api.Post("/api/v1/player/toggle", deviceHeader, map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"playing":true`)

	resp = ts.api.Delete("/api/v1/player", deviceHeader)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/player", deviceHeader)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestPlayerSeekAndPosition(t *testing.T) {
	ts := newTestServer(t)
	loadDemo(t, ts)

	resp := ts.api.Post("/api/v1/player/seek", deviceHeader, map[string]any{"seconds": 2})
	require.Equal(t, http.StatusOK, resp.Code)

	var session SessionResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &session))
	assert.Equal(t, 30, session.Position)

	resp = ts.api.Post("/api/v1/player/position", deviceHeader, map[string]any{"progress": 0.5})
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &session))
	assert.InDelta(t, 0.5, session.Progress, 0.01)
	assert.False(t, session.Playing)

	// Out-of-range progress is rejected by the schema.
	resp = ts.api.Post("/api/v1/player/position", deviceHeader, map[string]any{"progress": 1.5})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestPlayerRate(t *testing.T) {
	ts := newTestServer(t)
	loadDemo(t, ts)

	resp := ts.api.Post("/api/v1/player/rate", deviceHeader, map[string]any{"rate": 1.25})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"rate":1.25`)

	resp = ts.api.Post("/api/v1/player/rate", deviceHeader, map[string]any{"rate": 1.1})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestPlayerResume(t *testing.T) {
	ts := newTestServer(t)
	loadDemo(t, ts)

	resp := ts.api.Post("/api/v1/player/resume", deviceHeader, map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"playing":true`)
}

func TestPlayerLoadDocumentAndRestore(t *testing.T) {
	ts := newTestServer(t)

	rec := upload(t, ts, "device-1", "resume.pdf", []byte("%PDF-1.4 body"))
	require.Equal(t, http.StatusOK, rec.Code)

	var uploaded SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))

	resp := ts.api.Post("/api/v1/player/load", deviceHeader, map[string]any{
		"document_id": uploaded.DocumentID,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/player/restore", deviceHeader, map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), uploaded.DocumentID)
	assert.Contains(t, resp.Body.String(), `"playing":false`)
}

func TestPlayerRestore_DemoNotRevivable(t *testing.T) {
	ts := newTestServer(t)
	loadDemo(t, ts)

	resp := ts.api.Post("/api/v1/player/restore", deviceHeader, map[string]any{})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestPlayerBookmarkCurrent(t *testing.T) {
	ts := newTestServer(t)

	rec := upload(t, ts, "device-1", "marks.pdf", []byte("%PDF-1.4 body"))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := ts.api.Post("/api/v1/player/bookmark", deviceHeader, map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), `"position":0`)
}

func TestPlayerBookmarkCurrent_DemoRejected(t *testing.T) {
	ts := newTestServer(t)
	loadDemo(t, ts)

	resp := ts.api.Post("/api/v1/player/bookmark", deviceHeader, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestPlayerExport_NoEngine(t *testing.T) {
	ts := newTestServer(t)
	loadDemo(t, ts)

	resp := ts.api.Post("/api/v1/player/export", deviceHeader, map[string]any{})
	assert.Equal(t, http.StatusNotImplemented, resp.Code)
	assert.Contains(t, resp.Body.String(), "UNSUPPORTED")
}
