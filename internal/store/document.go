package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/pagevoiceapp/pagevoice-server/internal/domain"
)

// docKey builds the storage key for a document.
func docKey(deviceID, docID string) []byte {
	return []byte(documentPrefix + deviceID + ":" + docID)
}

// docListKey builds the key for a device's ordered document ID list.
func docListKey(deviceID string) []byte {
	return []byte(docListPrefix + deviceID)
}

// CreateDocument stores a document and appends it to the device's library,
// enforcing maxItems in the same transaction as the insert. Two concurrent
// uploads cannot both pass the capacity check against a stale count.
// maxItems of domain.LimitUnlimited disables the check.
func (s *Store) CreateDocument(_ context.Context, doc *domain.Document, maxItems int) error {
	key := docKey(doc.DeviceID, doc.ID)
	listKey := docListKey(doc.DeviceID)

	err := s.db.Update(func(txn *badger.Txn) error {
		var ids []string
		if err := txnGet(txn, listKey, &ids); err != nil && !isNotFound(err) {
			return err
		}

		if maxItems != domain.LimitUnlimited && len(ids) >= maxItems {
			return ErrLibraryFull
		}

		for _, existing := range ids {
			if existing == doc.ID {
				return errors.New("document already exists")
			}
		}

		if err := txnSet(txn, key, doc); err != nil {
			return err
		}
		return txnSet(txn, listKey, append(ids, doc.ID))
	})
	if err != nil {
		if errors.Is(err, ErrLibraryFull) {
			return ErrLibraryFull
		}
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID for a device.
func (s *Store) GetDocument(_ context.Context, deviceID, docID string) (*domain.Document, error) {
	var doc domain.Document
	if err := s.get(docKey(deviceID, docID), &doc); err != nil {
		if isNotFound(err) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &doc, nil
}

// ListDocuments returns a device's documents in insertion order.
func (s *Store) ListDocuments(_ context.Context, deviceID string) ([]*domain.Document, error) {
	listKey := docListKey(deviceID)

	var docs []*domain.Document
	err := s.db.View(func(txn *badger.Txn) error {
		var ids []string
		if err := txnGet(txn, listKey, &ids); err != nil {
			if isNotFound(err) {
				return nil
			}
			return err
		}

		docs = make([]*domain.Document, 0, len(ids))
		for _, id := range ids {
			var doc domain.Document
			if err := txnGet(txn, docKey(deviceID, id), &doc); err != nil {
				return fmt.Errorf("load document %s: %w", id, err)
			}
			docs = append(docs, &doc)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// CountDocuments returns the number of documents in a device's library.
func (s *Store) CountDocuments(_ context.Context, deviceID string) (int, error) {
	var ids []string
	if err := s.get(docListKey(deviceID), &ids); err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return len(ids), nil
}

// DeleteDocument removes a document and its library list entry.
func (s *Store) DeleteDocument(_ context.Context, deviceID, docID string) error {
	key := docKey(deviceID, docID)
	listKey := docListKey(deviceID)

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			return err
		}

		var ids []string
		if err := txnGet(txn, listKey, &ids); err != nil && !isNotFound(err) {
			return err
		}

		remaining := make([]string, 0, len(ids))
		for _, id := range ids {
			if id != docID {
				remaining = append(remaining, id)
			}
		}

		if err := txnSet(txn, listKey, remaining); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		if isNotFound(err) {
			return ErrDocumentNotFound
		}
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// AddBookmark appends a bookmark to a document, enforcing maxBookmarks in
// the same transaction as the append. maxBookmarks of domain.LimitUnlimited
// disables the check.
func (s *Store) AddBookmark(_ context.Context, deviceID, docID string, bookmark domain.Bookmark, maxBookmarks int) error {
	key := docKey(deviceID, docID)

	err := s.db.Update(func(txn *badger.Txn) error {
		var doc domain.Document
		if err := txnGet(txn, key, &doc); err != nil {
			return err
		}

		if maxBookmarks != domain.LimitUnlimited && len(doc.Bookmarks) >= maxBookmarks {
			return ErrBookmarkLimit
		}

		doc.Bookmarks = append(doc.Bookmarks, bookmark)
		return txnSet(txn, key, &doc)
	})
	if err != nil {
		if isNotFound(err) {
			return ErrDocumentNotFound
		}
		if errors.Is(err, ErrBookmarkLimit) {
			return ErrBookmarkLimit
		}
		return fmt.Errorf("add bookmark: %w", err)
	}
	return nil
}

// RemoveBookmark deletes a bookmark from a document.
func (s *Store) RemoveBookmark(_ context.Context, deviceID, docID, bookmarkID string) error {
	key := docKey(deviceID, docID)

	err := s.db.Update(func(txn *badger.Txn) error {
		var doc domain.Document
		if err := txnGet(txn, key, &doc); err != nil {
			return err
		}

		for i, b := range doc.Bookmarks {
			if b.ID == bookmarkID {
				doc.Bookmarks = append(doc.Bookmarks[:i], doc.Bookmarks[i+1:]...)
				return txnSet(txn, key, &doc)
			}
		}
		return ErrBookmarkNotFound
	})
	if err != nil {
		if isNotFound(err) {
			return ErrDocumentNotFound
		}
		if errors.Is(err, ErrBookmarkNotFound) {
			return ErrBookmarkNotFound
		}
		return fmt.Errorf("remove bookmark: %w", err)
	}
	return nil
}
