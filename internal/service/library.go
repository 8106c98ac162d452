package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/pagevoiceapp/pagevoice-server/internal/domain"
	domainerrors "github.com/pagevoiceapp/pagevoice-server/internal/errors"
	"github.com/pagevoiceapp/pagevoice-server/internal/id"
	"github.com/pagevoiceapp/pagevoice-server/internal/search"
	"github.com/pagevoiceapp/pagevoice-server/internal/sse"
	"github.com/pagevoiceapp/pagevoice-server/internal/store"
)

// LibraryService manages each device's document library and bookmarks.
// Tier limits are enforced on insert; existing entries survive a downgrade.
type LibraryService struct {
	store        *store.Store
	entitlements *EntitlementService
	index        *search.Index
	emitter      *sse.Manager
	logger       *slog.Logger
}

// NewLibraryService creates a new library service. The search index may be
// nil, in which case documents are simply not indexed.
func NewLibraryService(
	st *store.Store,
	entitlements *EntitlementService,
	index *search.Index,
	emitter *sse.Manager,
	logger *slog.Logger,
) *LibraryService {
	return &LibraryService{
		store:        st,
		entitlements: entitlements,
		index:        index,
		emitter:      emitter,
		logger:       logger,
	}
}

// CapacityCheck reports whether the device can take another document.
type CapacityCheck struct {
	CanAdd   bool `json:"can_add"`
	MaxItems int  `json:"max_items"`
	Current  int  `json:"current"`
}

// CanAddDocument checks the device's library against its tier limit.
func (s *LibraryService) CanAddDocument(ctx context.Context, deviceID string) (CapacityCheck, error) {
	count, err := s.store.CountDocuments(ctx, deviceID)
	if err != nil {
		return CapacityCheck{}, domainerrors.Storage("count documents").WithCause(err)
	}

	check, err := s.entitlements.CheckFeatureLimit(ctx, deviceID, domain.FeatureRecentFiles, count)
	if err != nil {
		return CapacityCheck{}, err
	}

	return CapacityCheck{
		CanAdd:   check.Allowed,
		MaxItems: check.Limit,
		Current:  count,
	}, nil
}

// maxItemsForDevice resolves the library ceiling used by the store's
// transactional capacity check.
func (s *LibraryService) maxItemsForDevice(ctx context.Context, deviceID string) (int, error) {
	check, err := s.entitlements.CheckFeatureLimit(ctx, deviceID, domain.FeatureRecentFiles, 0)
	if err != nil {
		return 0, err
	}
	return check.Limit, nil
}

// AddDocument stores an extracted document in the device's library. The
// capacity check runs inside the store transaction, so two rapid uploads
// cannot both pass on a stale count.
func (s *LibraryService) AddDocument(ctx context.Context, doc *domain.Document) error {
	maxItems, err := s.maxItemsForDevice(ctx, doc.DeviceID)
	if err != nil {
		return err
	}

	if doc.ID == "" {
		docID, err := id.Generate("doc")
		if err != nil {
			return err
		}
		doc.ID = docID
	}
	if doc.AddedAt.IsZero() {
		doc.AddedAt = time.Now()
	}

	if err := s.store.CreateDocument(ctx, doc, maxItems); err != nil {
		if domainerrors.Is(err, store.ErrLibraryFull) {
			return domainerrors.LimitExceeded("library is full on the free tier")
		}
		return domainerrors.Storage("create document").WithCause(err)
	}

	if s.index != nil {
		if err := s.index.IndexDocument(doc); err != nil {
			// The library remains the source of truth; a failed index entry
			// only degrades search until the next rebuild.
			s.logger.Warn("failed to index document",
				slog.String("document_id", doc.ID),
				slog.String("error", err.Error()))
		}
	}

	if s.emitter != nil {
		s.emitter.Emit(sse.NewDocumentAddedEvent(doc.DeviceID, doc.ID, doc.Name))
	}

	s.logger.Info("document added",
		slog.String("device_id", doc.DeviceID),
		slog.String("document_id", doc.ID),
		slog.String("name", doc.Name),
		slog.Int("pages", doc.Pages))
	return nil
}

// ListDocuments returns the device's library in insertion order.
func (s *LibraryService) ListDocuments(ctx context.Context, deviceID string) ([]*domain.Document, error) {
	docs, err := s.store.ListDocuments(ctx, deviceID)
	if err != nil {
		return nil, domainerrors.Storage("list documents").WithCause(err)
	}
	return docs, nil
}

// GetDocument returns a single library document.
func (s *LibraryService) GetDocument(ctx context.Context, deviceID, docID string) (*domain.Document, error) {
	doc, err := s.store.GetDocument(ctx, deviceID, docID)
	if err != nil {
		if domainerrors.Is(err, store.ErrDocumentNotFound) {
			return nil, domainerrors.NotFound("document not found")
		}
		return nil, domainerrors.Storage("get document").WithCause(err)
	}
	return doc, nil
}

// RemoveDocument deletes a document. Library entries never expire; removal
// is always an explicit user action.
func (s *LibraryService) RemoveDocument(ctx context.Context, deviceID, docID string) error {
	if err := s.store.DeleteDocument(ctx, deviceID, docID); err != nil {
		if domainerrors.Is(err, store.ErrDocumentNotFound) {
			return domainerrors.NotFound("document not found")
		}
		return domainerrors.Storage("delete document").WithCause(err)
	}

	if s.index != nil {
		if err := s.index.DeleteDocument(deviceID, docID); err != nil {
			s.logger.Warn("failed to unindex document",
				slog.String("document_id", docID),
				slog.String("error", err.Error()))
		}
	}

	if s.emitter != nil {
		s.emitter.Emit(sse.NewDocumentRemovedEvent(deviceID, docID))
	}

	s.logger.Info("document removed",
		slog.String("device_id", deviceID),
		slog.String("document_id", docID))
	return nil
}

// AddBookmark captures a reading position in the document. The tier's
// bookmark limit is enforced inside the store transaction.
func (s *LibraryService) AddBookmark(ctx context.Context, deviceID, docID string, position int) (*domain.Bookmark, error) {
	doc, err := s.GetDocument(ctx, deviceID, docID)
	if err != nil {
		return nil, err
	}

	check, err := s.entitlements.CheckFeatureLimit(ctx, deviceID, domain.FeatureBookmarks, 0)
	if err != nil {
		return nil, err
	}

	bookmarkID, err := id.Generate("bmk")
	if err != nil {
		return nil, err
	}

	bookmark := domain.Bookmark{
		ID:        bookmarkID,
		Position:  position,
		Text:      doc.Snippet(position),
		CreatedAt: time.Now(),
	}

	if err := s.store.AddBookmark(ctx, deviceID, docID, bookmark, check.Limit); err != nil {
		if domainerrors.Is(err, store.ErrBookmarkLimit) {
			return nil, domainerrors.LimitExceeded("bookmark limit reached on the free tier")
		}
		if domainerrors.Is(err, store.ErrDocumentNotFound) {
			return nil, domainerrors.NotFound("document not found")
		}
		return nil, domainerrors.Storage("add bookmark").WithCause(err)
	}

	// Reindex so the new bookmark snippet becomes searchable.
	if s.index != nil {
		if updated, getErr := s.store.GetDocument(ctx, deviceID, docID); getErr == nil {
			if idxErr := s.index.IndexDocument(updated); idxErr != nil {
				s.logger.Warn("failed to reindex document",
					slog.String("document_id", docID),
					slog.String("error", idxErr.Error()))
			}
		}
	}

	s.logger.Info("bookmark added",
		slog.String("device_id", deviceID),
		slog.String("document_id", docID),
		slog.Int("position", position))
	return &bookmark, nil
}

// ListBookmarks returns the document's bookmarks in creation order.
func (s *LibraryService) ListBookmarks(ctx context.Context, deviceID, docID string) ([]domain.Bookmark, error) {
	doc, err := s.GetDocument(ctx, deviceID, docID)
	if err != nil {
		return nil, err
	}
	return doc.Bookmarks, nil
}

// RemoveBookmark deletes a single bookmark.
func (s *LibraryService) RemoveBookmark(ctx context.Context, deviceID, docID, bookmarkID string) error {
	if err := s.store.RemoveBookmark(ctx, deviceID, docID, bookmarkID); err != nil {
		if domainerrors.Is(err, store.ErrDocumentNotFound) {
			return domainerrors.NotFound("document not found")
		}
		if domainerrors.Is(err, store.ErrBookmarkNotFound) {
			return domainerrors.NotFound("bookmark not found")
		}
		return domainerrors.Storage("remove bookmark").WithCause(err)
	}
	return nil
}
