package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagevoiceapp/pagevoice-server/internal/domain"
)

// upload posts a multipart file through the full middleware stack.
func upload(t *testing.T, ts *testServer, device, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Device-ID", device)

	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)
	return rec
}

func TestUploadDocument(t *testing.T) {
	ts := newTestServer(t)

	rec := upload(t, ts, "device-1", "report.pdf", []byte("%PDF-1.4 fake body"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var session SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.NotEmpty(t, session.DocumentID)
	assert.False(t, session.Playing)

	resp := ts.api.Get("/api/v1/documents", deviceHeader)
	require.Equal(t, http.StatusOK, resp.Code)

	var list struct {
		Documents []DocumentSummary `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	require.Len(t, list.Documents, 1)
	assert.Equal(t, "report.pdf", list.Documents[0].Name)
	assert.Equal(t, 2, list.Documents[0].Pages)
}

func TestUploadDocument_NonPDF(t *testing.T) {
	ts := newTestServer(t)

	rec := upload(t, ts, "device-1", "notes.txt", []byte("plain text"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION")
}

func TestUploadDocument_MissingFile(t *testing.T) {
	ts := newTestServer(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("name", "report.pdf"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Device-ID", "device-1")

	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDocument_IncludesText(t *testing.T) {
	ts := newTestServer(t)

	rec := upload(t, ts, "device-1", "report.pdf", []byte("%PDF-1.4 fake body"))
	require.Equal(t, http.StatusOK, rec.Code)

	var session SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))

	resp := ts.api.Get("/api/v1/documents/"+session.DocumentID, deviceHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), ts.extractor.text)
}

func TestGetDocument_DeviceScoped(t *testing.T) {
	ts := newTestServer(t)

	rec := upload(t, ts, "device-1", "mine.pdf", []byte("%PDF-1.4 private"))
	require.Equal(t, http.StatusOK, rec.Code)

	var session SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))

	resp := ts.api.Get("/api/v1/documents/"+session.DocumentID, "X-Device-ID: device-2")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDeleteDocument(t *testing.T) {
	ts := newTestServer(t)

	rec := upload(t, ts, "device-1", "doomed.pdf", []byte("%PDF-1.4 x"))
	require.Equal(t, http.StatusOK, rec.Code)

	var session SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))

	resp := ts.api.Delete("/api/v1/documents/"+session.DocumentID, deviceHeader)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Delete("/api/v1/documents/"+session.DocumentID, deviceHeader)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestLibraryCapacity(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.api.Get("/api/v1/documents/capacity", deviceHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"can_add":true`)
	assert.Contains(t, resp.Body.String(), `"current":0`)

	for range domain.FreeLibraryLimit {
		rec := upload(t, ts, "device-1", "doc.pdf", []byte("%PDF-1.4 body"))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	resp = ts.api.Get("/api/v1/documents/capacity", deviceHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"can_add":false`)
}

func TestBookmarks(t *testing.T) {
	ts := newTestServer(t)

	rec := upload(t, ts, "device-1", "marks.pdf", []byte("%PDF-1.4 body"))
	require.Equal(t, http.StatusOK, rec.Code)

	var session SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	docPath := "/api/v1/documents/" + session.DocumentID

	resp := ts.api.Post(docPath+"/bookmarks", deviceHeader, map[string]any{"position": 6})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var bookmark domain.Bookmark
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &bookmark))
	assert.Equal(t, 6, bookmark.Position)
	assert.NotEmpty(t, bookmark.Text)

	resp = ts.api.Get(docPath+"/bookmarks", deviceHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), bookmark.ID)

	resp = ts.api.Delete(docPath+"/bookmarks/"+bookmark.ID, deviceHeader)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestBookmarks_FreeLimit(t *testing.T) {
	ts := newTestServer(t)

	rec := upload(t, ts, "device-1", "marks.pdf", []byte("%PDF-1.4 body"))
	require.Equal(t, http.StatusOK, rec.Code)

	var session SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	path := "/api/v1/documents/" + session.DocumentID + "/bookmarks"

	for i := range domain.FreeBookmarkLimit {
		resp := ts.api.Post(path, deviceHeader, map[string]any{"position": i})
		require.Equal(t, http.StatusOK, resp.Code)
	}

	resp := ts.api.Post(path, deviceHeader, map[string]any{"position": 0})
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Contains(t, resp.Body.String(), "LIMIT_EXCEEDED")
}

func TestSearch(t *testing.T) {
	ts := newTestServer(t)

	rec := upload(t, ts, "device-1", "stub.pdf", []byte("%PDF-1.4 body"))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := ts.api.Get("/api/v1/search?q=stub", deviceHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"total":1`)
	assert.Contains(t, resp.Body.String(), "stub.pdf")

	// Another device's library is empty.
	resp = ts.api.Get("/api/v1/search?q=stub", "X-Device-ID: device-2")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"total":0`)
}
