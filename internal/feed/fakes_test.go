package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/alanyoungcy/whalebot/internal/domain"
)

var errPeerClosed = errors.New("peer closed")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeConn replays frames and fails once they run out, unless hold is set,
// in which case it blocks until closed.
type fakeConn struct {
	frames chan []byte
	hold   bool
	closed chan struct{}
	once   sync.Once
}

func newFakeConn(hold bool, frames ...string) *fakeConn {
	c := &fakeConn{
		frames: make(chan []byte, len(frames)),
		hold:   hold,
		closed: make(chan struct{}),
	}
	for _, f := range frames {
		c.frames <- []byte(f)
	}
	return c
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case f := <-c.frames:
		return f, nil
	default:
	}
	if !c.hold {
		return nil, errPeerClosed
	}
	<-c.closed
	return nil, domain.ErrWSDisconnect
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// fakeDialer records every dial with the batch it was asked for. Scripted
// steps are consumed in order; once exhausted, each dial gets a held-open
// connection.
type fakeDialer struct {
	mu    sync.Mutex
	steps []dialStep
	dials [][]string
	conns []*fakeConn
	// failFor makes every dial whose batch contains this symbol fail.
	failFor string
}

type dialStep struct {
	conn *fakeConn
	err  error
}

func (d *fakeDialer) Dial(_ context.Context, symbols []string) (domain.FeedConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials = append(d.dials, append([]string(nil), symbols...))

	for _, s := range symbols {
		if d.failFor != "" && s == d.failFor {
			return nil, errors.New("handshake refused")
		}
	}

	if len(d.steps) > 0 {
		step := d.steps[0]
		d.steps = d.steps[1:]
		if step.err != nil {
			return nil, step.err
		}
		d.conns = append(d.conns, step.conn)
		return step.conn, nil
	}
	c := newFakeConn(true)
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dials)
}

func (d *fakeDialer) dialed() [][]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]string(nil), d.dials...)
}

// recordingDispatcher keeps every alert it is handed.
type recordingDispatcher struct {
	mu     sync.Mutex
	alerts []domain.Alert
}

func (r *recordingDispatcher) Dispatch(a domain.Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
}

func (r *recordingDispatcher) received() []domain.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Alert(nil), r.alerts...)
}

// staticProvider returns a fixed symbol list or error.
type staticProvider struct {
	symbols []string
	err     error
}

func (p staticProvider) FetchSymbols(context.Context) ([]string, error) {
	return p.symbols, p.err
}
