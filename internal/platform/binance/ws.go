package binance

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/whalebot/internal/domain"
)

const (
	// writeWait is the time allowed to write a control frame to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed between inbound frames (data, ping or
	// pong) before the connection is considered dead.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxFrameSize bounds a single inbound message.
	maxFrameSize = 1 << 20
)

// StreamURL joins one "<symbol>@trade" channel per symbol onto baseURL, e.g.
// "wss://fstream.binance.com/stream?streams=btcusdt@trade/ethusdt@trade".
func StreamURL(baseURL string, symbols []string) string {
	streams := make([]string, len(symbols))
	for i, s := range symbols {
		streams[i] = strings.ToLower(s) + "@trade"
	}
	return baseURL + strings.Join(streams, "/")
}

// Dialer opens combined trade-stream connections. It implements
// domain.FeedDialer.
type Dialer struct {
	baseURL string
	dialer  websocket.Dialer
}

// NewDialer creates a Dialer for the combined-stream endpoint baseURL.
func NewDialer(baseURL string) *Dialer {
	return &Dialer{
		baseURL: baseURL,
		dialer: websocket.Dialer{
			HandshakeTimeout: 15 * time.Second,
		},
	}
}

// Dial connects and subscribes to the trade streams of symbols.
func (d *Dialer) Dial(ctx context.Context, symbols []string) (domain.FeedConn, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("binance/ws: dial: no symbols")
	}

	conn, resp, err := d.dialer.DialContext(ctx, StreamURL(d.baseURL, symbols), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("binance/ws: dial: status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("binance/ws: dial: %w", err)
	}

	return newConn(conn), nil
}

// Conn is a live trade-stream connection with keep-alive.
type Conn struct {
	ws        *websocket.Conn
	done      chan struct{}
	closeOnce sync.Once
}

func newConn(ws *websocket.Conn) *Conn {
	c := &Conn{
		ws:   ws,
		done: make(chan struct{}),
	}

	ws.SetReadLimit(maxFrameSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	// The server pings every few minutes and drops clients that do not pong.
	ws.SetPingHandler(func(appData string) error {
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		err := ws.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
		if err == websocket.ErrCloseSent {
			return nil
		}
		return err
	})

	go c.pingLoop()
	return c
}

// ReadMessage blocks until the next data frame arrives. Any data frame also
// counts as liveness.
func (c *Conn) ReadMessage() ([]byte, error) {
	_, msg, err := c.ws.ReadMessage()
	if err != nil {
		select {
		case <-c.done:
			return nil, fmt.Errorf("binance/ws: %w", domain.ErrWSDisconnect)
		default:
		}
		return nil, fmt.Errorf("binance/ws: read: %w", err)
	}
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	return msg, nil
}

// Close sends a close frame and tears down the socket. Safe to call more
// than once and concurrently with ReadMessage.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		err = c.ws.Close()
	})
	return err
}

// pingLoop sends periodic pings so half-open sockets surface as read errors.
func (c *Conn) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
