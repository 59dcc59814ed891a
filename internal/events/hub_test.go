package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingsloob1/snipfair-app-sub000/internal/testutil"
)

// serve starts a websocket endpoint attaching every connection to hub as userID
func serve(t *testing.T, hub *Hub, userID uint) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Attach(conn, userID)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return hub.ClientCount(userID) == 1 }, time.Second, 10*time.Millisecond)
	return conn
}

func TestPublishDeliversToUser(t *testing.T) {
	hub := NewHub(nil)
	conn := serve(t, hub, 7)

	hub.Publish([]uint{8}, Event{Type: MessageCreated, Data: "not for 7"})
	hub.Publish([]uint{7}, Event{Type: AppointmentUpdated, Data: map[string]any{"id": 1}})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got Event
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, AppointmentUpdated, got.Type)
}

func TestClientRemovedOnDisconnect(t *testing.T) {
	hub := NewHub(nil)
	conn := serve(t, hub, 3)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount(3) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestFanOutAcrossInstances(t *testing.T) {
	srv, rdb := testutil.NewRedis(t)
	publisher := NewHub(rdb)
	receiver := NewHub(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go receiver.Run(ctx)
	require.Eventually(t, func() bool { return srv.PubSubNumSub(Channel)[Channel] == 1 }, time.Second, 10*time.Millisecond)

	conn := serve(t, receiver, 11)
	publisher.Publish([]uint{11}, Event{Type: WalletUpdated, Data: map[string]any{"balance": 10}})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got Event
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, WalletUpdated, got.Type)
}
