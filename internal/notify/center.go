// Package notify holds the server-side state behind the client's toast and
// dialog surfaces. Toasts are short-lived, dialogs are at most one per device.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pagevoiceapp/pagevoice-server/internal/domain"
	"github.com/pagevoiceapp/pagevoice-server/internal/id"
	"github.com/pagevoiceapp/pagevoice-server/internal/sse"
)

// Center keeps the active toast notifications per device. Expired entries are
// pruned lazily on read and by a background sweeper.
type Center struct {
	mu      sync.Mutex
	active  map[string][]*domain.Notification
	emitter *sse.Manager
	logger  *slog.Logger
	now     func() time.Time
}

// NewCenter creates a notification center. The emitter may be nil in tests.
func NewCenter(emitter *sse.Manager, logger *slog.Logger) *Center {
	return &Center{
		active:  make(map[string][]*domain.Notification),
		emitter: emitter,
		logger:  logger,
		now:     time.Now,
	}
}

// Push creates a notification for the device and broadcasts it. Multiple
// notifications may be live at once; order is oldest first.
func (c *Center) Push(deviceID string, severity domain.Severity, message string) (*domain.Notification, error) {
	notificationID, err := id.Generate("ntf")
	if err != nil {
		return nil, err
	}

	now := c.now()
	n := &domain.Notification{
		ID:        notificationID,
		DeviceID:  deviceID,
		Severity:  severity,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(domain.NotificationTTL),
	}

	c.mu.Lock()
	c.active[deviceID] = append(c.active[deviceID], n)
	c.mu.Unlock()

	if c.emitter != nil {
		c.emitter.Emit(sse.NewNotificationCreatedEvent(n))
	}

	c.logger.Debug("notification pushed",
		slog.String("device_id", deviceID),
		slog.String("severity", string(severity)),
		slog.String("message", message))

	return n, nil
}

// Success pushes a success toast, ignoring errors. Convenience for callers
// where a failed toast must not fail the operation.
func (c *Center) Success(deviceID, message string) {
	_, _ = c.Push(deviceID, domain.SeveritySuccess, message)
}

// Error pushes an error toast.
func (c *Center) Error(deviceID, message string) {
	_, _ = c.Push(deviceID, domain.SeverityError, message)
}

// Warning pushes a warning toast.
func (c *Center) Warning(deviceID, message string) {
	_, _ = c.Push(deviceID, domain.SeverityWarning, message)
}

// Info pushes an info toast.
func (c *Center) Info(deviceID, message string) {
	_, _ = c.Push(deviceID, domain.SeverityInfo, message)
}

// Active returns the device's live notifications, oldest first. Expired
// entries are pruned as a side effect.
func (c *Center) Active(deviceID string) []*domain.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pruneLocked(deviceID)

	live := c.active[deviceID]
	out := make([]*domain.Notification, len(live))
	copy(out, live)
	return out
}

// Dismiss removes a notification before its TTL elapses.
// Returns false if the notification is not live.
func (c *Center) Dismiss(deviceID, notificationID string) bool {
	c.mu.Lock()
	live := c.active[deviceID]
	found := false
	for i, n := range live {
		if n.ID == notificationID {
			c.active[deviceID] = append(live[:i], live[i+1:]...)
			found = true
			break
		}
	}
	c.mu.Unlock()

	if found && c.emitter != nil {
		c.emitter.Emit(sse.NewNotificationDismissedEvent(deviceID, notificationID))
	}
	return found
}

// StartSweeper prunes expired notifications periodically until ctx is done.
// The lazy prune in Active covers correctness; the sweeper just keeps memory
// bounded for devices that stop polling.
func (c *Center) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-ctx.Done():
			return
		}
	}
}

func (c *Center) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for deviceID := range c.active {
		c.pruneLocked(deviceID)
		if len(c.active[deviceID]) == 0 {
			delete(c.active, deviceID)
		}
	}
}

func (c *Center) pruneLocked(deviceID string) {
	now := c.now()
	live := c.active[deviceID][:0]
	for _, n := range c.active[deviceID] {
		if !n.Expired(now) {
			live = append(live, n)
		}
	}
	c.active[deviceID] = live
}
