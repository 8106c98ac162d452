package sse

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagevoiceapp/pagevoice-server/internal/domain"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(slog.New(slog.DiscardHandler))
}

func TestConnectDisconnect(t *testing.T) {
	m := newTestManager(t)

	client, err := m.Connect("device-1")
	require.NoError(t, err)
	assert.Equal(t, "device-1", client.DeviceID)
	assert.Equal(t, 1, m.ClientCount())

	m.Disconnect(client.ID)
	assert.Equal(t, 0, m.ClientCount())

	// Disconnecting twice is a no-op.
	m.Disconnect(client.ID)
}

func TestBroadcast_DeviceFiltering(t *testing.T) {
	m := newTestManager(t)

	mine, err := m.Connect("device-1")
	require.NoError(t, err)
	other, err := m.Connect("device-2")
	require.NoError(t, err)
	all, err := m.Connect("")
	require.NoError(t, err)

	m.broadcast(NewEntitlementUpdatedEvent("device-1", true))

	select {
	case evt := <-mine.EventChan:
		assert.Equal(t, EventEntitlementUpdated, evt.Type)
	default:
		t.Fatal("expected event for matching device")
	}

	select {
	case <-other.EventChan:
		t.Fatal("event leaked to another device")
	default:
	}

	select {
	case <-all.EventChan:
	default:
		t.Fatal("unscoped client should receive everything")
	}
}

func TestBroadcast_DropsWhenClientFull(t *testing.T) {
	m := newTestManager(t)

	client, err := m.Connect("device-1")
	require.NoError(t, err)

	for range cap(client.EventChan) + 5 {
		m.broadcast(NewHeartbeatEvent())
	}

	assert.Len(t, client.EventChan, cap(client.EventChan))
}

func TestNotificationEvent_ScopedToDevice(t *testing.T) {
	n := &domain.Notification{ID: "ntf-1", DeviceID: "device-9", Message: "saved"}

	evt := NewNotificationCreatedEvent(n)
	assert.Equal(t, EventNotificationCreated, evt.Type)
	assert.Equal(t, "device-9", evt.DeviceID)
}
