package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanSource struct {
	ch      chan []byte
	err     error
	channel chan string
}

func (s *chanSource) Subscribe(_ context.Context, channel string) (<-chan []byte, error) {
	s.channel <- channel
	if s.err != nil {
		return nil, s.err
	}
	return s.ch, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(ts.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, hello, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(hello), `"type":"hello"`)
	return conn
}

func readAlert(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, kind)

	var env envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, "alert", env.Type)
	assert.NotEmpty(t, env.Time)
	return env.Text
}

func TestHubBroadcastsToEveryClient(t *testing.T) {
	hub := NewHub(nil, testLogger(), Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	a := dialHub(t, hub)
	b := dialHub(t, hub)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Send(ctx, "first"))
	require.NoError(t, hub.Send(ctx, "second"))

	for _, conn := range []*websocket.Conn{a, b} {
		assert.Equal(t, "first", readAlert(t, conn))
		assert.Equal(t, "second", readAlert(t, conn))
	}
	assert.Equal(t, "ws", hub.Name())
}

func TestHubRelaysFromSource(t *testing.T) {
	src := &chanSource{ch: make(chan []byte, 1), channel: make(chan string, 1)}
	hub := NewHub(src, testLogger(), Config{Channel: "whalebot:alerts"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := dialHub(t, hub)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	select {
	case ch := <-src.channel:
		assert.Equal(t, "whalebot:alerts", ch)
	case <-time.After(time.Second):
		t.Fatal("hub never subscribed")
	}

	src.ch <- []byte("relayed")
	assert.Equal(t, "relayed", readAlert(t, conn))
}

func TestHubSourceFailureKeepsDirectSends(t *testing.T) {
	src := &chanSource{err: errors.New("redis down"), channel: make(chan string, 1)}
	hub := NewHub(src, testLogger(), Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := dialHub(t, hub)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Send(ctx, "direct"))
	assert.Equal(t, "direct", readAlert(t, conn))
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub(nil, testLogger(), Config{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()

	conn := dialHub(t, hub)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Zero(t, hub.ClientCount())

	err = hub.Send(context.Background(), "late")
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}
