package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GriffinCanCode/MarkerTrack/backend/internal/shared/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	return setupHubWithBuffer(t, 4)
}

func setupHubWithBuffer(t *testing.T, buffer int) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(buffer, nil)
	router := gin.New()
	router.GET("/stream", hub.HandleConnection)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) types.WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var msg types.WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHubWelcomeAndPublish(t *testing.T) {
	hub, srv := setupHub(t)
	conn := dial(t, srv)

	welcome := readMessage(t, conn)
	assert.Equal(t, types.WSTypeSystem, welcome.Type)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	card := types.PopupCard{ID: uuid.New(), Content: "hello", ShownAt: time.Now().UTC()}
	hub.Publish(card)

	msg := readMessage(t, conn)
	assert.Equal(t, types.WSTypePopup, msg.Type)
	require.NotNil(t, msg.Popup)
	assert.Equal(t, card.ID, msg.Popup.ID)
	assert.Equal(t, "hello", msg.Popup.Content)
}

func TestHubReplaysLatestCardOnConnect(t *testing.T) {
	hub, srv := setupHub(t)

	hub.Publish(types.PopupCard{ID: uuid.New(), Content: "old"})
	latest := types.PopupCard{ID: uuid.New(), Content: "latest"}
	hub.Publish(latest)

	conn := dial(t, srv)
	assert.Equal(t, types.WSTypeSystem, readMessage(t, conn).Type)

	msg := readMessage(t, conn)
	require.NotNil(t, msg.Popup)
	assert.Equal(t, latest.ID, msg.Popup.ID)
}

func TestHubPingPong(t *testing.T) {
	_, srv := setupHub(t)
	conn := dial(t, srv)
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(types.WSMessage{Type: types.WSTypePing}))
	assert.Equal(t, types.WSTypePong, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(types.WSMessage{Type: "dance"}))
	msg := readMessage(t, conn)
	assert.Equal(t, types.WSTypeError, msg.Type)
	assert.NotEmpty(t, msg.Message)
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub, srv := setupHub(t)
	conn := dial(t, srv)
	readMessage(t, conn)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 3*time.Second, 10*time.Millisecond)

	// Publishing with nobody connected is fine
	assert.NotPanics(t, func() { hub.Publish(types.PopupCard{ID: uuid.New(), Content: "x"}) })
}

func TestHubClose(t *testing.T) {
	hub, srv := setupHub(t)
	conn := dial(t, srv)
	readMessage(t, conn)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Equal(t, 0, hub.Clients())

	// The server closes the connection
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	// New clients are turned away
	late := dial(t, srv)
	require.NoError(t, late.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err = late.ReadMessage()
	assert.Error(t, err)
}

func TestHubPublishWithoutClients(t *testing.T) {
	hub := NewHub(0, nil)
	assert.NotPanics(t, func() { hub.Publish(types.PopupCard{ID: uuid.New(), Content: "x"}) })
	assert.Equal(t, 0, hub.Clients())
}

func TestHubDropsSlowClient(t *testing.T) {
	hub, srv := setupHubWithBuffer(t, 1)
	// Never reads, so socket buffers fill and the write pump stalls
	dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	big := strings.Repeat("x", 1<<20)
	require.Eventually(t, func() bool {
		hub.Publish(types.PopupCard{ID: uuid.New(), Content: big, ShownAt: time.Now().UTC()})
		return hub.Clients() == 0
	}, 10*time.Second, time.Millisecond)

	// The hub keeps serving new viewers
	hub.Publish(types.PopupCard{ID: uuid.New(), Content: "after"})
	conn := dial(t, srv)
	assert.Equal(t, types.WSTypeSystem, readMessage(t, conn).Type)
	msg := readMessage(t, conn)
	require.NotNil(t, msg.Popup)
	assert.Equal(t, "after", msg.Popup.Content)
}
