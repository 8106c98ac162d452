package store

import (
	"context"
	"fmt"

	"github.com/pagevoiceapp/pagevoice-server/internal/domain"
)

// SavePlaybackSnapshot persists the playback session snapshot for a device.
// The text buffer itself is not stored; it reloads from the document.
func (s *Store) SavePlaybackSnapshot(_ context.Context, session *domain.PlaybackSession) error {
	key := []byte(playbackPrefix + session.DeviceID)
	if err := s.set(key, session); err != nil {
		return fmt.Errorf("save playback snapshot: %w", err)
	}
	return nil
}

// GetPlaybackSnapshot retrieves the playback snapshot for a device.
func (s *Store) GetPlaybackSnapshot(_ context.Context, deviceID string) (*domain.PlaybackSession, error) {
	key := []byte(playbackPrefix + deviceID)

	var session domain.PlaybackSession
	if err := s.get(key, &session); err != nil {
		if isNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get playback snapshot: %w", err)
	}
	return &session, nil
}

// DeletePlaybackSnapshot removes the playback snapshot for a device.
func (s *Store) DeletePlaybackSnapshot(_ context.Context, deviceID string) error {
	key := []byte(playbackPrefix + deviceID)
	if err := s.delete(key); err != nil {
		return fmt.Errorf("delete playback snapshot: %w", err)
	}
	return nil
}
