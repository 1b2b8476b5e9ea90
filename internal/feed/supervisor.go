package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/whalebot/internal/domain"
)

// SupervisorConfig sizes the batches and configures every Stream.
type SupervisorConfig struct {
	BatchSize int
	Stream    StreamConfig
}

// Supervisor discovers instruments once, partitions them, and runs one Stream
// per batch. Streams never share state and a failing stream never affects
// its siblings.
type Supervisor struct {
	provider   domain.SymbolProvider
	dialer     domain.FeedDialer
	decode     Decoder
	dispatcher Dispatcher
	cfg        SupervisorConfig
	logger     *slog.Logger

	mu      sync.RWMutex
	streams []*Stream
	started bool
	group   errgroup.Group
}

// NewSupervisor wires the collaborators together. Nothing runs until Start.
func NewSupervisor(provider domain.SymbolProvider, dialer domain.FeedDialer, decode Decoder, dispatcher Dispatcher, cfg SupervisorConfig, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		provider:   provider,
		dialer:     dialer,
		decode:     decode,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger.With(slog.String("component", "supervisor")),
	}
}

// Start fetches the instrument list, builds the streams, and launches each in
// its own goroutine before returning. A discovery failure is returned as is;
// the process cannot run without an initial instrument set.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("feed: supervisor already started")
	}

	symbols, err := s.provider.FetchSymbols(ctx)
	if err != nil {
		return fmt.Errorf("feed: fetch symbols: %w", err)
	}
	batches, err := Partition(symbols, s.cfg.BatchSize)
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		return fmt.Errorf("feed: %w", domain.ErrNoInstruments)
	}

	s.streams = make([]*Stream, 0, len(batches))
	for _, b := range batches {
		s.streams = append(s.streams, NewStream(b, s.dialer, s.decode, s.dispatcher, s.cfg.Stream, s.logger))
	}

	s.logger.InfoContext(ctx, "starting streams",
		slog.Int("symbols", len(symbols)),
		slog.Int("connections", len(s.streams)),
		slog.Int("batch_size", s.cfg.BatchSize),
	)
	for _, st := range s.streams {
		s.group.Go(func() error {
			return st.Run(ctx)
		})
	}
	s.started = true
	return nil
}

// Wait blocks until every stream has returned, which only happens after the
// context passed to Start is cancelled.
func (s *Supervisor) Wait() error {
	return s.group.Wait()
}

// Run is Start followed by Wait.
func (s *Supervisor) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	return s.Wait()
}

// Snapshot returns the status of every stream in batch order.
func (s *Supervisor) Snapshot() []domain.StreamStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.StreamStatus, 0, len(s.streams))
	for _, st := range s.streams {
		out = append(out, st.Status())
	}
	return out
}
