package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/forlenza/fis-control/internal/engine"
)

func TestHubBroadcastsTickSnapshots(t *testing.T) {
	hub := NewHub(zerolog.Nop(), nil)
	send := make(chan StreamMessage, 4)
	hub.register("client-a", send)
	defer hub.unregister("client-a")

	ts := time.Now()
	hub.OnTick(ts, engine.Snapshot{Mode: engine.ModeNormal, LastUpdate: ts})

	require.Len(t, send, 1)
	msg := <-send
	assert.Equal(t, MessageTypeSensorUpdate, msg.Type)
	assert.Equal(t, ts, msg.Timestamp)
	assert.Equal(t, engine.ModeNormal, msg.Snapshot.Mode)
}

func TestHubDropsFramesForSlowClients(t *testing.T) {
	hub := NewHub(zerolog.Nop(), nil)
	send := make(chan StreamMessage, 1)
	hub.register("client-a", send)
	defer hub.unregister("client-a")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			hub.OnTick(time.Now(), engine.Snapshot{})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast must never block on a slow client")
	}
	assert.Len(t, send, 1)
}

func TestHandleWSDeregistersOnClientClose(t *testing.T) {
	hub := NewHub(zerolog.Nop(), nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, srv.URL, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "goodbye"))

	// No ticks flow here; the close frame alone must deregister the client.
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond, "closed client must leave the hub")
}

func TestHandleWSDeliversTickFrames(t *testing.T) {
	hub := NewHub(zerolog.Nop(), nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, srv.URL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	ts := time.Now().UTC()
	hub.OnTick(ts, engine.Snapshot{Mode: engine.ModeNormal, LastUpdate: ts})

	var msg StreamMessage
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, MessageTypeSensorUpdate, msg.Type)
	assert.Equal(t, engine.ModeNormal, msg.Snapshot.Mode)
	assert.True(t, msg.Timestamp.Equal(ts))
}

func TestHubClientCount(t *testing.T) {
	hub := NewHub(zerolog.Nop(), nil)
	assert.Zero(t, hub.ClientCount())

	hub.register("a", make(chan StreamMessage, 1))
	hub.register("b", make(chan StreamMessage, 1))
	assert.Equal(t, 2, hub.ClientCount())

	hub.unregister("a")
	assert.Equal(t, 1, hub.ClientCount())
}
