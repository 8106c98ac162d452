package notify

import "sync"

// DialogTracker tracks the single active dialog per device. Showing a dialog
// replaces whatever was open; hiding is unconditional.
type DialogTracker struct {
	mu     sync.Mutex
	active map[string]string
}

// NewDialogTracker creates a dialog tracker.
func NewDialogTracker() *DialogTracker {
	return &DialogTracker{active: make(map[string]string)}
}

// Show marks the dialog as the device's active one, replacing any previous.
func (t *DialogTracker) Show(deviceID, dialogID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active[deviceID] = dialogID
}

// Hide clears the device's active dialog regardless of which one is open.
func (t *DialogTracker) Hide(deviceID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.active, deviceID)
}

// HideAll clears every device's dialog.
func (t *DialogTracker) HideAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.active)
}

// Active returns the device's open dialog ID, if any.
func (t *DialogTracker) Active(deviceID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	dialogID, ok := t.active[deviceID]
	return dialogID, ok
}
