package store

import (
	"context"
	"fmt"

	"github.com/pagevoiceapp/pagevoice-server/internal/domain"
)

// GetUser retrieves the user record for a device.
func (s *Store) GetUser(_ context.Context, deviceID string) (*domain.UserRecord, error) {
	key := []byte(userPrefix + deviceID)

	var user domain.UserRecord
	if err := s.get(key, &user); err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// SetUser persists the user record for a device.
func (s *Store) SetUser(_ context.Context, deviceID string, user *domain.UserRecord) error {
	key := []byte(userPrefix + deviceID)
	if err := s.set(key, user); err != nil {
		return fmt.Errorf("set user: %w", err)
	}
	return nil
}

// DeleteUser removes the user record for a device.
func (s *Store) DeleteUser(_ context.Context, deviceID string) error {
	key := []byte(userPrefix + deviceID)
	if err := s.delete(key); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
