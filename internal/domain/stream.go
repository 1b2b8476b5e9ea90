package domain

import (
	"context"
	"time"
)

// ConnState is the lifecycle state of one stream connection.
type ConnState int32

const (
	ConnConnecting ConnState = iota
	ConnOpen
	ConnClosedPendingRetry
	ConnStopped
)

func (s ConnState) String() string {
	switch s {
	case ConnConnecting:
		return "connecting"
	case ConnOpen:
		return "open"
	case ConnClosedPendingRetry:
		return "closed_pending_retry"
	case ConnStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// StreamStatus is a point-in-time view of a stream connection, exposed for
// observability only.
type StreamStatus struct {
	Batch         int       `json:"batch"`
	Symbols       int       `json:"symbols"`
	State         string    `json:"state"`
	Session       string    `json:"session,omitempty"`
	Reconnects    int64     `json:"reconnects"`
	Frames        int64     `json:"frames"`
	Alerts        int64     `json:"alerts"`
	LastConnected time.Time `json:"last_connected,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
}

// FeedConn is one live connection carrying a batch's trade streams.
// Close may be called more than once, and concurrently with ReadMessage to
// unblock it.
type FeedConn interface {
	ReadMessage() ([]byte, error)
	Close() error
}

// FeedDialer opens a connection subscribed to the trade streams of symbols.
type FeedDialer interface {
	Dial(ctx context.Context, symbols []string) (FeedConn, error)
}
