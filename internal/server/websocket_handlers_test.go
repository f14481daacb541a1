package server

import (
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"postboard/internal/models"
	"postboard/internal/notifications"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveFeed_StreamsPostEvents(t *testing.T) {
	s, app := setupTestServer(t, "live_feed=on")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()

	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/posts/live", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	defer func() { _ = conn.Close() }()

	require.Eventually(t, func() bool { return s.hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	created := createViaAPI(t, app, tokenFor(t, "u1"), "Live")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev notifications.PostEvent
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, notifications.EventPostCreated, ev.Type)
	assert.Equal(t, created.ID, ev.PostID)
	assert.Equal(t, "u1", ev.Actor)
	require.NotNil(t, ev.Post)
	assert.Equal(t, "Live", ev.Post.Title)

	resp2, _ := doRequest(t, app, http.MethodDelete, "/posts/"+created.ID, nil, tokenFor(t, "u1"))
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, notifications.EventPostDeleted, ev.Type)
}

func TestLiveFeed_RejectsPlainHTTP(t *testing.T) {
	_, app := setupTestServer(t, "live_feed=on")

	resp, raw := doRequest(t, app, http.MethodGet, "/posts/live", nil, "")
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
	assert.Equal(t, "WebSocket upgrade required", decode[models.ErrorResponse](t, raw).Message)
}

func TestLiveFeed_Disabled(t *testing.T) {
	_, app := setupTestServer(t, "live_feed=off")

	resp, _ := doRequest(t, app, http.MethodGet, "/posts/live", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
