package domain

import "errors"

var (
	ErrInvalidBatchSize = errors.New("batch size must be positive")
	ErrNoInstruments    = errors.New("no instruments matched the filter")
	ErrWSDisconnect     = errors.New("websocket disconnected")
	ErrQueueFull        = errors.New("notification queue full")
	ErrNoSenders        = errors.New("no notification senders configured")
)
