package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/pagevoiceapp/pagevoice-server/internal/domain"
)

// GetEntitlement retrieves the entitlement record for a device.
func (s *Store) GetEntitlement(_ context.Context, deviceID string) (*domain.EntitlementRecord, error) {
	key := []byte(entitlementPrefix + deviceID)

	var record domain.EntitlementRecord
	if err := s.get(key, &record); err != nil {
		if isNotFound(err) {
			return nil, ErrEntitlementNotFound
		}
		return nil, fmt.Errorf("get entitlement: %w", err)
	}
	return &record, nil
}

// SetEntitlement persists the entitlement record for a device.
func (s *Store) SetEntitlement(_ context.Context, deviceID string, record *domain.EntitlementRecord) error {
	key := []byte(entitlementPrefix + deviceID)
	if err := s.set(key, record); err != nil {
		return fmt.Errorf("set entitlement: %w", err)
	}
	return nil
}

// DeleteEntitlement removes the entitlement record for a device.
// Deleting a missing record is not an error.
func (s *Store) DeleteEntitlement(_ context.Context, deviceID string) error {
	key := []byte(entitlementPrefix + deviceID)
	if err := s.delete(key); err != nil {
		return fmt.Errorf("delete entitlement: %w", err)
	}
	return nil
}

// CheckEntitlement reads the record and lazily clears it when expired, all
// inside one transaction so the expiry check and the delete cannot interleave
// with another writer. Returns the live record, or nil when the device has no
// active grant.
func (s *Store) CheckEntitlement(_ context.Context, deviceID string, now time.Time) (*domain.EntitlementRecord, error) {
	key := []byte(entitlementPrefix + deviceID)

	var record *domain.EntitlementRecord
	err := s.db.Update(func(txn *badger.Txn) error {
		var rec domain.EntitlementRecord
		if err := txnGet(txn, key, &rec); err != nil {
			if isNotFound(err) {
				return nil
			}
			return err
		}

		if rec.Expired(now) {
			return txn.Delete(key)
		}

		record = &rec
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("check entitlement: %w", err)
	}
	return record, nil
}
