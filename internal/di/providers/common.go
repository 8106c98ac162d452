package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// notificationSweepInterval is how often expired toasts are pruned.
	notificationSweepInterval = 30 * time.Second
)
