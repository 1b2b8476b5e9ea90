package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/whalebot/internal/server"
	"github.com/alanyoungcy/whalebot/internal/server/handler"
)

// MonitorMode starts the delivery workers, the optional HTTP server, and the
// stream supervisor. Instrument discovery failing is fatal; after that only
// cancellation stops the monitor.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Dispatcher.Run(ctx)
	})

	if deps.Hub != nil {
		g.Go(func() error {
			return deps.Hub.Run(ctx)
		})
	}

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps)
	}

	if err := deps.Supervisor.Start(ctx); err != nil {
		cancel()
		if werr := g.Wait(); werr != nil && !errors.Is(werr, context.Canceled) {
			return werr
		}
		return fmt.Errorf("app: start streams: %w", err)
	}

	a.logger.InfoContext(ctx, "monitor running",
		slog.String("threshold", a.cfg.Monitor.Threshold().String()),
		slog.Any("senders", deps.Notifier.Senders()),
	)

	g.Go(deps.Supervisor.Wait)

	return g.Wait()
}

// startHTTPServer adds the server and its shutdown watcher to g. The server
// is shut down gracefully when the context is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
	}, server.Handlers{
		Health: handler.NewHealthHandler(deps.StartedAt),
		Status: handler.NewStatusHandler(handler.StatusInfo{
			Threshold: a.cfg.Monitor.Threshold().String(),
			BatchSize: a.cfg.Monitor.BatchSize,
			Backoff:   a.cfg.Monitor.Backoff,
			Senders:   deps.Notifier.Senders(),
		}, deps.Supervisor),
	}, deps.Hub, a.logger)

	g.Go(srv.Start)

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
