package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alanyoungcy/whalebot/internal/cache/redis"
	"github.com/alanyoungcy/whalebot/internal/config"
	"github.com/alanyoungcy/whalebot/internal/domain"
	"github.com/alanyoungcy/whalebot/internal/feed"
	"github.com/alanyoungcy/whalebot/internal/notify"
	"github.com/alanyoungcy/whalebot/internal/platform/binance"
	"github.com/alanyoungcy/whalebot/internal/server/ws"
)

// Dependencies bundles everything MonitorMode runs. It is constructed by Wire
// and torn down by the returned cleanup function.
type Dependencies struct {
	Supervisor *feed.Supervisor
	Notifier   *notify.Notifier
	Dispatcher *notify.Dispatcher

	// AlertBus is nil unless Redis is enabled.
	AlertBus *redis.AlertBus
	// Hub is nil unless the HTTP server is enabled.
	Hub *ws.Hub

	StartedAt time.Time
}

// Wire constructs all concrete implementations from the given configuration
// and returns them together with a cleanup function that should be called on
// shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{StartedAt: time.Now().UTC()}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramAPIURL,
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}

	// --- Redis (optional alert bus) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.AlertBus = redis.NewAlertBus(redisClient, cfg.Redis.AlertChannel)
		senders = append(senders, deps.AlertBus)
	}

	// --- WebSocket hub ---
	// With Redis enabled the hub relays from the bus, so it sees alerts from
	// every instance publishing there; otherwise it is fed directly.
	if cfg.Server.Enabled {
		hubCfg := ws.Config{StartedAt: deps.StartedAt}
		if deps.AlertBus != nil {
			hubCfg.Channel = deps.AlertBus.Channel()
			deps.Hub = ws.NewHub(deps.AlertBus, logger, hubCfg)
		} else {
			deps.Hub = ws.NewHub(nil, logger, hubCfg)
			senders = append(senders, deps.Hub)
		}
	}

	if len(senders) == 0 {
		logger.WarnContext(ctx, "alerts will only be logged",
			slog.String("error", domain.ErrNoSenders.Error()),
		)
	}

	deps.Notifier = notify.NewNotifier(senders, logger)
	deps.Dispatcher = notify.NewDispatcher(deps.Notifier, notify.DispatcherConfig{
		QueueSize:   cfg.Notify.QueueSize,
		Workers:     cfg.Notify.Workers,
		SendTimeout: cfg.Notify.SendTimeout.Duration,
	}, logger)

	// --- Exchange ---
	provider := binance.NewExchangeInfoProvider(
		cfg.Binance.RestBaseURL,
		domain.ContractQuotedIn(cfg.Binance.ContractType, cfg.Binance.QuoteAsset),
		logger,
	)
	dialer := binance.NewDialer(cfg.Binance.StreamBaseURL)

	deps.Supervisor = feed.NewSupervisor(provider, dialer, binance.DecodeTrade, deps.Dispatcher, feed.SupervisorConfig{
		BatchSize: cfg.Monitor.BatchSize,
		Stream: feed.StreamConfig{
			Threshold: cfg.Monitor.Threshold(),
			Backoff:   newBackoff(cfg.Monitor),
		},
	}, logger)

	return deps, cleanup, nil
}

// newBackoff picks the reconnect policy. Anything other than "exponential"
// gets the constant delay.
func newBackoff(m config.MonitorConfig) feed.Backoff {
	if strings.EqualFold(m.Backoff, "exponential") {
		return feed.ExponentialBackoff{
			Min:    m.ReconnectDelay.Duration,
			Max:    m.MaxReconnectDelay.Duration,
			Factor: 2,
			Jitter: m.BackoffJitter,
		}
	}
	return feed.ConstantBackoff{Delay: m.ReconnectDelay.Duration}
}
