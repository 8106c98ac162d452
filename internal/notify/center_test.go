package notify

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagevoiceapp/pagevoice-server/internal/domain"
)

func newTestCenter(t *testing.T) *Center {
	t.Helper()
	return NewCenter(nil, slog.New(slog.DiscardHandler))
}

func TestPushAndActive(t *testing.T) {
	c := newTestCenter(t)

	first, err := c.Push("device-1", domain.SeveritySuccess, "saved")
	require.NoError(t, err)
	second, err := c.Push("device-1", domain.SeverityError, "failed")
	require.NoError(t, err)

	live := c.Active("device-1")
	require.Len(t, live, 2)
	assert.Equal(t, first.ID, live[0].ID)
	assert.Equal(t, second.ID, live[1].ID)

	assert.Empty(t, c.Active("device-2"))
}

func TestActive_PrunesExpired(t *testing.T) {
	c := newTestCenter(t)

	now := time.Now()
	c.now = func() time.Time { return now }

	_, err := c.Push("device-1", domain.SeverityInfo, "old")
	require.NoError(t, err)

	c.now = func() time.Time { return now.Add(domain.NotificationTTL + time.Second) }

	fresh, err := c.Push("device-1", domain.SeverityInfo, "new")
	require.NoError(t, err)

	live := c.Active("device-1")
	require.Len(t, live, 1)
	assert.Equal(t, fresh.ID, live[0].ID)
}

func TestDismiss(t *testing.T) {
	c := newTestCenter(t)

	n, err := c.Push("device-1", domain.SeverityWarning, "careful")
	require.NoError(t, err)

	assert.True(t, c.Dismiss("device-1", n.ID))
	assert.Empty(t, c.Active("device-1"))

	assert.False(t, c.Dismiss("device-1", n.ID))
	assert.False(t, c.Dismiss("device-1", "ntf-missing"))
}

func TestSweep_DropsEmptyDevices(t *testing.T) {
	c := newTestCenter(t)

	now := time.Now()
	c.now = func() time.Time { return now }

	_, err := c.Push("device-1", domain.SeverityInfo, "hello")
	require.NoError(t, err)

	c.now = func() time.Time { return now.Add(time.Minute) }
	c.sweep()

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.NotContains(t, c.active, "device-1")
}

func TestDialogTracker(t *testing.T) {
	tr := NewDialogTracker()

	_, ok := tr.Active("device-1")
	assert.False(t, ok)

	tr.Show("device-1", "premiumModal")
	dialogID, ok := tr.Active("device-1")
	require.True(t, ok)
	assert.Equal(t, "premiumModal", dialogID)

	// Showing another dialog replaces the first.
	tr.Show("device-1", "loginModal")
	dialogID, _ = tr.Active("device-1")
	assert.Equal(t, "loginModal", dialogID)

	tr.Hide("device-1")
	_, ok = tr.Active("device-1")
	assert.False(t, ok)

	tr.Show("device-1", "a")
	tr.Show("device-2", "b")
	tr.HideAll()
	_, ok = tr.Active("device-1")
	assert.False(t, ok)
	_, ok = tr.Active("device-2")
	assert.False(t, ok)
}
