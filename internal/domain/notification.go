package domain

import "time"

// Severity classifies a notification.
type Severity string

// Notification severities.
const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// NotificationTTL is how long a notification stays visible before
// auto-dismissing.
const NotificationTTL = 4 * time.Second

// Notification is a transient user-facing message. Notifications queue in
// insertion order, oldest first; several may coexist.
type Notification struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"device_id"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the notification's display window has passed.
func (n *Notification) Expired(now time.Time) bool {
	return now.After(n.ExpiresAt)
}
