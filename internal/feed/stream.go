// Package feed turns the discovered instrument list into long-lived trade
// stream connections. A Supervisor partitions the symbols into batches and
// runs one Stream per batch; each Stream owns its connection, filters trades
// into alerts, and reconnects on its own forever.
package feed

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/whalebot/internal/alert"
	"github.com/alanyoungcy/whalebot/internal/domain"
	"github.com/alanyoungcy/whalebot/internal/metrics"
)

// Decoder turns a raw frame into a trade. It reports false for frames that
// are not trades; those are dropped without logging an error.
type Decoder func(raw []byte) (domain.TradeEvent, bool)

// Dispatcher accepts alerts for delivery. Dispatch must not block.
type Dispatcher interface {
	Dispatch(domain.Alert)
}

// StreamConfig holds the per-connection policy shared by every Stream.
type StreamConfig struct {
	Threshold decimal.Decimal
	Backoff   Backoff
}

// Stream keeps one batch subscribed for the life of the process:
// connecting → open → read loop → closed pending retry → connecting, with
// the same batch every time.
type Stream struct {
	batch      domain.Batch
	dialer     domain.FeedDialer
	decode     Decoder
	dispatcher Dispatcher
	threshold  decimal.Decimal
	backoff    Backoff
	label      string
	logger     *slog.Logger

	// wait blocks between attempts; tests swap it for a recorder.
	wait func(ctx context.Context, d time.Duration) error

	mu            sync.RWMutex
	state         domain.ConnState
	session       string
	lastConnected time.Time
	lastErr       string

	reconnects atomic.Int64
	frames     atomic.Int64
	alerts     atomic.Int64
}

// NewStream creates a Stream for batch. A nil Backoff falls back to a
// constant three-second delay.
func NewStream(batch domain.Batch, dialer domain.FeedDialer, decode Decoder, dispatcher Dispatcher, cfg StreamConfig, logger *slog.Logger) *Stream {
	backoff := cfg.Backoff
	if backoff == nil {
		backoff = ConstantBackoff{Delay: 3 * time.Second}
	}
	label := strconv.Itoa(batch.Index)
	return &Stream{
		batch:      batch,
		dialer:     dialer,
		decode:     decode,
		dispatcher: dispatcher,
		threshold:  cfg.Threshold,
		backoff:    backoff,
		label:      label,
		logger: logger.With(
			slog.String("component", "stream"),
			slog.Int("batch", batch.Index),
		),
		wait:  sleepContext,
		state: domain.ConnConnecting,
	}
}

// Run drives the connection until ctx is cancelled, which is the only way it
// returns. Dial and read errors are logged and followed by a reconnect after
// the backoff delay; the retry count is unbounded.
func (s *Stream) Run(ctx context.Context) error {
	defer s.setState(domain.ConnStopped)

	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.setState(domain.ConnConnecting)
		opened, err := s.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if opened {
			attempt = 0
		}
		attempt++

		s.setState(domain.ConnClosedPendingRetry)
		s.setLastError(err)
		delay := s.backoff.Next(attempt)
		s.logger.Warn("stream closed, reconnecting",
			slog.String("error", errString(err)),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
		)

		if err := s.wait(ctx, delay); err != nil {
			return err
		}
		s.reconnects.Add(1)
		metrics.ReconnectsTotal.WithLabelValues(s.label).Inc()
	}
}

// runConnection dials once and reads until the connection fails. opened
// reports whether the dial succeeded.
func (s *Stream) runConnection(ctx context.Context) (opened bool, err error) {
	conn, err := s.dialer.Dial(ctx, s.batch.Symbols)
	if err != nil {
		return false, err
	}

	// Cancelling ctx closes the socket, which unblocks ReadMessage.
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()
	defer func() {
		close(stop)
		_ = conn.Close()
	}()

	session := uuid.NewString()
	s.markOpen(session)
	s.logger.Info("stream connected",
		slog.Int("symbols", len(s.batch.Symbols)),
		slog.String("session", session),
	)

	for {
		raw, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		s.handleFrame(raw)
	}
}

// handleFrame decodes, filters, and hands off one frame. It never blocks on
// delivery.
func (s *Stream) handleFrame(raw []byte) {
	s.frames.Add(1)
	metrics.FramesTotal.WithLabelValues(s.label).Inc()

	trade, ok := s.decode(raw)
	if !ok {
		return
	}
	metrics.TradesTotal.WithLabelValues(s.label).Inc()

	a, ok := alert.Evaluate(trade, s.threshold)
	if !ok {
		return
	}
	s.alerts.Add(1)
	s.logger.Info("large trade",
		slog.String("symbol", a.Symbol),
		slog.String("side", a.Side.String()),
		slog.String("notional", a.Notional.StringFixed(2)),
	)
	s.dispatcher.Dispatch(a)
}

// Batch returns the batch this stream serves.
func (s *Stream) Batch() domain.Batch {
	return s.batch
}

// State returns the current lifecycle state.
func (s *Stream) State() domain.ConnState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Status returns a snapshot for observability.
func (s *Stream) Status() domain.StreamStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.StreamStatus{
		Batch:         s.batch.Index,
		Symbols:       len(s.batch.Symbols),
		State:         s.state.String(),
		Session:       s.session,
		Reconnects:    s.reconnects.Load(),
		Frames:        s.frames.Load(),
		Alerts:        s.alerts.Load(),
		LastConnected: s.lastConnected,
		LastError:     s.lastErr,
	}
}

func (s *Stream) setState(st domain.ConnState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	metrics.ConnectionState.WithLabelValues(s.label).Set(float64(st))
}

func (s *Stream) markOpen(session string) {
	s.mu.Lock()
	s.state = domain.ConnOpen
	s.session = session
	s.lastConnected = time.Now().UTC()
	s.mu.Unlock()
	metrics.ConnectionState.WithLabelValues(s.label).Set(float64(domain.ConnOpen))
}

func (s *Stream) setLastError(err error) {
	s.mu.Lock()
	s.lastErr = errString(err)
	s.mu.Unlock()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
