// Package sse implements Server-Sent Events for pushing ephemeral UI state
// (toasts, ingest progress, entitlement changes) to connected clients.
package sse

import (
	"time"

	"github.com/pagevoiceapp/pagevoice-server/internal/domain"
)

// EventType represents the type of SSE event.
type EventType string

const (
	// EventNotificationCreated announces a new toast notification.
	EventNotificationCreated EventType = "notification.created"
	// EventNotificationDismissed announces a toast being dismissed or expiring.
	EventNotificationDismissed EventType = "notification.dismissed"

	// EventIngestProgress reports per-page extraction progress during ingestion.
	EventIngestProgress EventType = "ingest.progress"
	// EventDocumentAdded announces a document landing in the library.
	EventDocumentAdded EventType = "document.added"
	// EventDocumentRemoved announces a document leaving the library.
	EventDocumentRemoved EventType = "document.removed"

	// EventEntitlementUpdated tells clients to refresh premium-gated UI.
	EventEntitlementUpdated EventType = "entitlement.updated"

	// EventPlaybackState reports playback session state changes.
	EventPlaybackState EventType = "playback.state"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// DeviceID filters delivery to a single device's clients.
	// Empty means broadcast to all. Not sent to clients.
	DeviceID string `json:"-"`
}

// NotificationEventData is the payload for notification events.
type NotificationEventData struct {
	Notification *domain.Notification `json:"notification,omitempty"`
	ID           string               `json:"id"`
}

// IngestProgressEventData is the payload for ingest progress events.
type IngestProgressEventData struct {
	Name  string `json:"name"`
	Page  int    `json:"page"`
	Total int    `json:"total"`
}

// DocumentEventData is the payload for document add/remove events.
type DocumentEventData struct {
	DocumentID string `json:"document_id"`
	Name       string `json:"name,omitempty"`
}

// EntitlementEventData is the payload for entitlement events.
type EntitlementEventData struct {
	IsPremium bool `json:"is_premium"`
}

// PlaybackStateEventData is the payload for playback state events.
type PlaybackStateEventData struct {
	DocumentID string  `json:"document_id"`
	Playing    bool    `json:"playing"`
	Progress   float64 `json:"progress"`
	Rate       float64 `json:"rate"`
}

// HeartbeatEventData is the payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewNotificationCreatedEvent creates a notification.created event scoped to
// the notification's device.
func NewNotificationCreatedEvent(n *domain.Notification) Event {
	return Event{
		Type:      EventNotificationCreated,
		Timestamp: time.Now(),
		DeviceID:  n.DeviceID,
		Data:      NotificationEventData{Notification: n, ID: n.ID},
	}
}

// NewNotificationDismissedEvent creates a notification.dismissed event.
func NewNotificationDismissedEvent(deviceID, notificationID string) Event {
	return Event{
		Type:      EventNotificationDismissed,
		Timestamp: time.Now(),
		DeviceID:  deviceID,
		Data:      NotificationEventData{ID: notificationID},
	}
}

// NewIngestProgressEvent creates an ingest.progress event.
func NewIngestProgressEvent(deviceID, name string, page, total int) Event {
	return Event{
		Type:      EventIngestProgress,
		Timestamp: time.Now(),
		DeviceID:  deviceID,
		Data:      IngestProgressEventData{Name: name, Page: page, Total: total},
	}
}

// NewDocumentAddedEvent creates a document.added event.
func NewDocumentAddedEvent(deviceID, documentID, name string) Event {
	return Event{
		Type:      EventDocumentAdded,
		Timestamp: time.Now(),
		DeviceID:  deviceID,
		Data:      DocumentEventData{DocumentID: documentID, Name: name},
	}
}

// NewDocumentRemovedEvent creates a document.removed event.
func NewDocumentRemovedEvent(deviceID, documentID string) Event {
	return Event{
		Type:      EventDocumentRemoved,
		Timestamp: time.Now(),
		DeviceID:  deviceID,
		Data:      DocumentEventData{DocumentID: documentID},
	}
}

// NewEntitlementUpdatedEvent creates an entitlement.updated event.
func NewEntitlementUpdatedEvent(deviceID string, isPremium bool) Event {
	return Event{
		Type:      EventEntitlementUpdated,
		Timestamp: time.Now(),
		DeviceID:  deviceID,
		Data:      EntitlementEventData{IsPremium: isPremium},
	}
}

// NewPlaybackStateEvent creates a playback.state event.
func NewPlaybackStateEvent(deviceID string, data PlaybackStateEventData) Event {
	return Event{
		Type:      EventPlaybackState,
		Timestamp: time.Now(),
		DeviceID:  deviceID,
		Data:      data,
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type:      EventHeartbeat,
		Timestamp: time.Now(),
		Data:      HeartbeatEventData{ServerTime: time.Now()},
	}
}
