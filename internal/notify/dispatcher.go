package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/whalebot/internal/domain"
	"github.com/alanyoungcy/whalebot/internal/metrics"
)

// Dispatcher decouples stream read loops from alert delivery. Dispatch only
// enqueues; a fixed pool of workers drains the queue into the Notifier.
// Delivery outcomes are logged and never reported back to the caller.
type Dispatcher struct {
	notifier    *Notifier
	queue       chan domain.Alert
	workers     int
	sendTimeout time.Duration
	logger      *slog.Logger
}

// DispatcherConfig tunes the queue and worker pool.
type DispatcherConfig struct {
	QueueSize   int
	Workers     int
	SendTimeout time.Duration
}

// NewDispatcher creates a Dispatcher. Non-positive config values fall back to
// a single worker, a 64-slot queue, and a 10-second send timeout.
func NewDispatcher(notifier *Notifier, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	return &Dispatcher{
		notifier:    notifier,
		queue:       make(chan domain.Alert, cfg.QueueSize),
		workers:     cfg.Workers,
		sendTimeout: cfg.SendTimeout,
		logger:      logger.With(slog.String("component", "dispatcher")),
	}
}

// Dispatch enqueues an alert without blocking. When the queue is full the
// alert is dropped.
func (d *Dispatcher) Dispatch(a domain.Alert) {
	metrics.AlertsTotal.WithLabelValues(a.Side.String()).Inc()
	select {
	case d.queue <- a:
	default:
		metrics.AlertsDropped.Inc()
		d.logger.Warn("alert dropped",
			slog.String("symbol", a.Symbol),
			slog.String("error", domain.ErrQueueFull.Error()),
		)
	}
}

// Run starts the workers and blocks until ctx is cancelled and every worker
// has returned. Alerts still queued at that point are discarded.
func (d *Dispatcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.work(ctx)
		}()
	}
	wg.Wait()
	return ctx.Err()
}

func (d *Dispatcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case a := <-d.queue:
			sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
			// Failures are already logged per sender by the Notifier.
			_ = d.notifier.Notify(sendCtx, a.Text)
			cancel()
		}
	}
}
