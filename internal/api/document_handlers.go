package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pagevoiceapp/pagevoice-server/internal/domain"
	domainerrors "github.com/pagevoiceapp/pagevoice-server/internal/errors"
)

func (s *Server) registerDocumentRoutes() {
	// Upload endpoint uses chi directly for multipart form handling;
	// see setupRoutes.

	huma.Register(s.api, huma.Operation{
		OperationID: "listDocuments",
		Method:      http.MethodGet,
		Path:        "/api/v1/documents",
		Summary:     "List library documents",
		Description: "Returns the device's library in insertion order",
		Tags:        []string{"Documents"},
	}, s.handleListDocuments)

	huma.Register(s.api, huma.Operation{
		OperationID: "getDocument",
		Method:      http.MethodGet,
		Path:        "/api/v1/documents/{id}",
		Summary:     "Get a document",
		Tags:        []string{"Documents"},
	}, s.handleGetDocument)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteDocument",
		Method:      http.MethodDelete,
		Path:        "/api/v1/documents/{id}",
		Summary:     "Remove a document",
		Tags:        []string{"Documents"},
	}, s.handleDeleteDocument)

	huma.Register(s.api, huma.Operation{
		OperationID: "getLibraryCapacity",
		Method:      http.MethodGet,
		Path:        "/api/v1/documents/capacity",
		Summary:     "Check library capacity",
		Tags:        []string{"Documents"},
	}, s.handleGetCapacity)

	huma.Register(s.api, huma.Operation{
		OperationID: "addBookmark",
		Method:      http.MethodPost,
		Path:        "/api/v1/documents/{id}/bookmarks",
		Summary:     "Add a bookmark",
		Tags:        []string{"Bookmarks"},
	}, s.handleAddBookmark)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBookmarks",
		Method:      http.MethodGet,
		Path:        "/api/v1/documents/{id}/bookmarks",
		Summary:     "List bookmarks",
		Tags:        []string{"Bookmarks"},
	}, s.handleListBookmarks)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBookmark",
		Method:      http.MethodDelete,
		Path:        "/api/v1/documents/{id}/bookmarks/{bookmarkID}",
		Summary:     "Remove a bookmark",
		Tags:        []string{"Bookmarks"},
	}, s.handleDeleteBookmark)
}

// DocumentSummary is a library entry without its text buffer.
type DocumentSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Pages     int       `json:"pages"`
	Bookmarks int       `json:"bookmarks"`
	AddedAt   time.Time `json:"added_at"`
}

func summarize(doc *domain.Document) DocumentSummary {
	return DocumentSummary{
		ID:        doc.ID,
		Name:      doc.Name,
		Size:      doc.Size,
		Pages:     doc.Pages,
		Bookmarks: len(doc.Bookmarks),
		AddedAt:   doc.AddedAt,
	}
}

// DocumentListOutput wraps the library listing for Huma.
type DocumentListOutput struct {
	Body struct {
		Documents []DocumentSummary `json:"documents"`
	}
}

func (s *Server) handleListDocuments(ctx context.Context, _ *struct{}) (*DocumentListOutput, error) {
	docs, err := s.services.Library.ListDocuments(ctx, deviceID(ctx))
	if err != nil {
		return nil, err
	}

	out := &DocumentListOutput{}
	out.Body.Documents = make([]DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		out.Body.Documents = append(out.Body.Documents, summarize(doc))
	}
	return out, nil
}

// DocumentInput identifies a document by path parameter.
type DocumentInput struct {
	ID string `path:"id" doc:"Document ID"`
}

// DocumentResponse is a full library entry including its text.
type DocumentResponse struct {
	DocumentSummary
	Text      string            `json:"text"`
	Bookmarks []domain.Bookmark `json:"bookmark_list"`
}

// DocumentOutput wraps a single document for Huma.
type DocumentOutput struct {
	Body DocumentResponse
}

func (s *Server) handleGetDocument(ctx context.Context, input *DocumentInput) (*DocumentOutput, error) {
	doc, err := s.services.Library.GetDocument(ctx, deviceID(ctx), input.ID)
	if err != nil {
		return nil, err
	}

	return &DocumentOutput{Body: DocumentResponse{
		DocumentSummary: summarize(doc),
		Text:            doc.Text,
		Bookmarks:       doc.Bookmarks,
	}}, nil
}

// DeleteOutput reports a completed delete.
type DeleteOutput struct {
	Body struct {
		Success bool `json:"success"`
	}
}

func (s *Server) handleDeleteDocument(ctx context.Context, input *DocumentInput) (*DeleteOutput, error) {
	if err := s.services.Library.RemoveDocument(ctx, deviceID(ctx), input.ID); err != nil {
		return nil, err
	}

	out := &DeleteOutput{}
	out.Body.Success = true
	return out, nil
}

// CapacityOutput wraps the library capacity check for Huma.
type CapacityOutput struct {
	Body struct {
		CanAdd   bool `json:"can_add"`
		MaxItems int  `json:"max_items" doc:"Tier ceiling; -1 means unlimited"`
		Current  int  `json:"current"`
	}
}

func (s *Server) handleGetCapacity(ctx context.Context, _ *struct{}) (*CapacityOutput, error) {
	check, err := s.services.Library.CanAddDocument(ctx, deviceID(ctx))
	if err != nil {
		return nil, err
	}

	out := &CapacityOutput{}
	out.Body.CanAdd = check.CanAdd
	out.Body.MaxItems = check.MaxItems
	out.Body.Current = check.Current
	return out, nil
}

// AddBookmarkInput contains the bookmark creation request.
type AddBookmarkInput struct {
	ID   string `path:"id" doc:"Document ID"`
	Body struct {
		Position int `json:"position" minimum:"0" doc:"Byte offset into the document text"`
	}
}

// BookmarkOutput wraps a single bookmark for Huma.
type BookmarkOutput struct {
	Body domain.Bookmark
}

func (s *Server) handleAddBookmark(ctx context.Context, input *AddBookmarkInput) (*BookmarkOutput, error) {
	bookmark, err := s.services.Library.AddBookmark(ctx, deviceID(ctx), input.ID, input.Body.Position)
	if err != nil {
		return nil, err
	}
	return &BookmarkOutput{Body: *bookmark}, nil
}

// BookmarkListOutput wraps a document's bookmarks for Huma.
type BookmarkListOutput struct {
	Body struct {
		Bookmarks []domain.Bookmark `json:"bookmarks"`
	}
}

func (s *Server) handleListBookmarks(ctx context.Context, input *DocumentInput) (*BookmarkListOutput, error) {
	bookmarks, err := s.services.Library.ListBookmarks(ctx, deviceID(ctx), input.ID)
	if err != nil {
		return nil, err
	}

	out := &BookmarkListOutput{}
	out.Body.Bookmarks = bookmarks
	return out, nil
}

// DeleteBookmarkInput identifies a bookmark by path parameters.
type DeleteBookmarkInput struct {
	ID         string `path:"id" doc:"Document ID"`
	BookmarkID string `path:"bookmarkID" doc:"Bookmark ID"`
}

func (s *Server) handleDeleteBookmark(ctx context.Context, input *DeleteBookmarkInput) (*DeleteOutput, error) {
	if err := s.services.Library.RemoveBookmark(ctx, deviceID(ctx), input.ID, input.BookmarkID); err != nil {
		return nil, err
	}

	out := &DeleteOutput{}
	out.Body.Success = true
	return out, nil
}

// handleUploadDocument ingests a multipart PDF upload and loads it into the
// device's player. This is a chi handler (not Huma) because Huma doesn't
// easily support multipart forms.
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	device := deviceFromRequest(r)

	r.Body = http.MaxBytesReader(w, r.Body, s.maxFileSize+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, domainerrors.Validation("missing form file \"file\"").WithCause(err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, domainerrors.Validation("failed to read upload").WithCause(err))
		return
	}

	session, err := s.services.Ingest.ProcessFile(ctx, device, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, sessionResponse(session))
}

// writeJSON writes a JSON response outside of huma handlers.
func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}

// writeError maps a domain error to the same JSON shape huma handlers emit.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var domainErr *domainerrors.Error
	if !errors.As(err, &domainErr) {
		domainErr = domainerrors.Internal("internal error").WithCause(err)
		s.logger.Error("unhandled upload error", "error", err)
	}

	s.writeJSON(w, domainErr.HTTPStatus(), &APIError{
		status:  domainErr.HTTPStatus(),
		Code:    string(domainErr.Code),
		Message: domainErr.Message,
		Details: domainErr.Details,
	})
}
