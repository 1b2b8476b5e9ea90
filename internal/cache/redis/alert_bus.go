package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// DefaultAlertChannel is used when no channel is configured.
const DefaultAlertChannel = "whalebot:alerts"

// AlertBus publishes rendered alert text to a pub/sub channel and lets
// consumers (the browser hub, other processes) subscribe to it.
type AlertBus struct {
	rdb     *redis.Client
	channel string
}

// NewAlertBus creates an AlertBus on channel, backed by the given Client.
func NewAlertBus(c *Client, channel string) *AlertBus {
	if strings.TrimSpace(channel) == "" {
		channel = DefaultAlertChannel
	}
	return &AlertBus{rdb: c.Underlying(), channel: channel}
}

// Name identifies the bus in logs and metrics.
func (b *AlertBus) Name() string { return "redis" }

// Channel returns the pub/sub channel alerts are published on.
func (b *AlertBus) Channel() string { return b.channel }

// Send publishes one alert. Delivery is fire-and-forget: a publish with no
// subscribers still succeeds.
func (b *AlertBus) Send(ctx context.Context, text string) error {
	if err := b.rdb.Publish(ctx, b.channel, text).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", b.channel, err)
	}
	return nil
}

// Subscribe creates a pub/sub subscription and returns a channel of raw
// payloads. The subscription and the returned channel are closed when ctx
// is cancelled.
func (b *AlertBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	if channel == "" {
		channel = b.channel
	}
	var pubsub *redis.PubSub
	if hasPattern(channel) {
		pubsub = b.rdb.PSubscribe(ctx, channel)
	} else {
		pubsub = b.rdb.Subscribe(ctx, channel)
	}

	// Wait for the subscription confirmation.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", channel, err)
	}

	out := make(chan []byte, 128)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// hasPattern reports whether channel has glob wildcards, which need
// PSubscribe instead of Subscribe.
func hasPattern(channel string) bool {
	return strings.ContainsAny(channel, "*?[")
}

// IsClosed reports whether err comes from using a closed client.
func IsClosed(err error) bool {
	return errors.Is(err, redis.ErrClosed)
}
