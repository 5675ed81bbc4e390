package notifyhub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestClient spins up an httptest server that upgrades the request to a
// Client subscribed to topics, and returns a connected *websocket.Conn the
// test can read Events from.
func newTestClient(t *testing.T, hub *Hub, topics []string) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := NewClient(hub, w, r, topics, zap.NewNop())
		require.NoError(t, err)
		go c.Run()
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + srv.URL[len("http"):]
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_PublishDeliversToSubscribedTopic(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := newTestClient(t, hub, []string{"account:acct-1"})

	require.Eventually(t, func() bool { return hub.ConnectedCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Publish("account:acct-1", Event{Type: EventAccountOnline, Topic: "account:acct-1"})

	var got Event
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, EventAccountOnline, got.Type)
	assert.Equal(t, "account:acct-1", got.Topic)
}

func TestHub_PublishIgnoresUnsubscribedTopic(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := newTestClient(t, hub, []string{"account:acct-1"})
	require.Eventually(t, func() bool { return hub.ConnectedCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Publish("account:acct-2", Event{Type: EventAccountOnline, Topic: "account:acct-2"})

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var got Event
	err := conn.ReadJSON(&got)
	assert.Error(t, err)
}

func TestHub_RunCancelDisconnectsClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	newTestClient(t, hub, []string{"account:acct-1"})
	require.Eventually(t, func() bool { return hub.ConnectedCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()

	require.Eventually(t, func() bool { return hub.ConnectedCount() == 0 }, time.Second, 5*time.Millisecond)
}
