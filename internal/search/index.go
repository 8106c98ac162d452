// Package search provides full-text search over extracted document text
// using Bleve. Results are scoped to the querying device's library.
package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/pagevoiceapp/pagevoice-server/internal/domain"
)

// mappingVersion is incremented whenever the index mapping changes.
// A mismatch on startup triggers an automatic rebuild.
const mappingVersion = "1"

// Index wraps a Bleve index with document-library operations.
//
// Thread safety: all public methods are safe for concurrent use. The mutex
// protects against index corruption during rebuild.
type Index struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	DataPath string
	Logger   *slog.Logger
}

// NewIndex creates or opens the search index under DataPath. A corrupt index
// or one written with an older mapping is removed and recreated; the library
// store remains the source of truth, so a rebuild only loses the index.
func NewIndex(opts Options) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	indexPath := filepath.Join(opts.DataPath, "search.bleve")
	versionPath := filepath.Join(opts.DataPath, "search.version")

	var index bleve.Index
	var err error
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		if readErr != nil {
			logger.Info("search index has no version file, will rebuild",
				"new_version", mappingVersion)
			needsRebuild = true
		} else if string(existingVersion) != mappingVersion {
			logger.Info("search index mapping version changed, will rebuild",
				"old_version", string(existingVersion),
				"new_version", mappingVersion)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate",
				"path", indexPath,
				"error", err)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	if index == nil {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); writeErr != nil {
			logger.Warn("failed to write search version file", "error", writeErr)
		}
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return &Index{
		index:  index,
		path:   indexPath,
		logger: logger,
	}, nil
}

// Close closes the index and releases resources.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexDocument adds or updates a library document in the index.
func (s *Index) IndexDocument(doc *domain.Document) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(indexID(doc.DeviceID, doc.ID), toIndexFields(doc))
}

// DeleteDocument removes a document from the index.
func (s *Index) DeleteDocument(deviceID, documentID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(indexID(deviceID, documentID))
}

// DocumentCount returns the total number of indexed documents.
func (s *Index) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// indexID namespaces document IDs by device so two devices uploading the
// same document never collide.
func indexID(deviceID, documentID string) string {
	return deviceID + ":" + documentID
}

// toIndexFields converts a document to a map with lowercase field names so
// they match the index mapping. Bookmark snippets are indexed too, which lets
// a search find the passages the reader marked.
func toIndexFields(doc *domain.Document) map[string]any {
	fields := map[string]any{
		"device_id":   doc.DeviceID,
		"document_id": doc.ID,
		"name":        doc.Name,
		"text":        doc.Text,
		"pages":       doc.Pages,
		"added_at":    doc.AddedAt.UnixMilli(),
	}

	if len(doc.Bookmarks) > 0 {
		snippets := make([]string, 0, len(doc.Bookmarks))
		for _, b := range doc.Bookmarks {
			if b.Text != "" {
				snippets = append(snippets, b.Text)
			}
		}
		if len(snippets) > 0 {
			fields["bookmarks"] = snippets
		}
	}

	return fields
}
