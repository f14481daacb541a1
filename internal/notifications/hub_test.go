package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub(0)

	a, err := hub.Register(nil, "u1")
	require.NoError(t, err)
	b, err := hub.Register(nil, "")
	require.NoError(t, err)
	assert.Equal(t, 2, hub.Count())

	hub.BroadcastAll(`{"type":"post_created"}`)
	assert.Equal(t, `{"type":"post_created"}`, string(<-a.Send))
	assert.Equal(t, `{"type":"post_created"}`, string(<-b.Send))

	hub.UnregisterClient(a)
	hub.UnregisterClient(a)
	assert.Equal(t, 1, hub.Count())
	_, open := <-a.Send
	assert.False(t, open)
}

func TestHub_ConnectionCap(t *testing.T) {
	hub := NewHub(1)

	_, err := hub.Register(nil, "u1")
	require.NoError(t, err)
	_, err = hub.Register(nil, "u2")
	assert.ErrorIs(t, err, ErrHubFull)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub := NewHub(0)
	c, err := hub.Register(nil, "u1")
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Zero(t, hub.Count())
	_, open := <-c.Send
	assert.False(t, open)

	_, err = hub.Register(nil, "u2")
	assert.ErrorIs(t, err, ErrHubClosed)

	// Unregistering after shutdown must not double-close.
	hub.UnregisterClient(c)
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	hub := NewHub(0)
	c, err := hub.Register(nil, "u1")
	require.NoError(t, err)

	for range sendBuffer {
		c.TrySend([]byte("x"))
	}
	c.TrySend([]byte("overflow"))
	assert.Len(t, c.Send, sendBuffer)

	hub.UnregisterClient(c)
	// Sending on a closed client is recovered.
	c.TrySend([]byte("late"))
}

func TestHub_StartWiringForwardsLocalEvents(t *testing.T) {
	hub := NewHub(0)
	n := NewNotifier(nil)
	require.NoError(t, hub.StartWiring(context.Background(), n))

	c, err := hub.Register(nil, "")
	require.NoError(t, err)

	require.NoError(t, n.PublishPostEvent(context.Background(), NewPostEvent(EventPostDeleted, "p1", nil, "")))
	select {
	case msg := <-c.Send:
		assert.Contains(t, string(msg), `"postId":"p1"`)
	case <-time.After(time.Second):
		t.Fatal("expected broadcast")
	}
}
