package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/whalebot/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingSender collects every delivered text.
type recordingSender struct {
	name string
	err  error

	mu    sync.Mutex
	texts []string
}

func (r *recordingSender) Send(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return r.err
}

func (r *recordingSender) Name() string { return r.name }

func (r *recordingSender) delivered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

func TestTelegramSenderPostsHTML(t *testing.T) {
	var got map[string]any
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewTelegramSender(srv.URL+"/", "123:abc", "-100777")
	require.NoError(t, s.Send(context.Background(), "🟢 <b>#BTCUSDT</b> big"))

	assert.Equal(t, "/bot123:abc/sendMessage", path)
	assert.Equal(t, "-100777", got["chat_id"])
	assert.Equal(t, "🟢 <b>#BTCUSDT</b> big", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.Equal(t, true, got["disable_web_page_preview"])
	assert.Equal(t, "telegram", s.Name())
}

func TestTelegramSenderReportsStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	err := NewTelegramSender(srv.URL, "t", "c").Send(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "chat not found")
}

func TestDiscordSenderConvertsMarkup(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, NewDiscordSender(srv.URL).Send(context.Background(), "🔴 <b>#ETHUSDT</b> SELL"))
	assert.Equal(t, "🔴 **#ETHUSDT** SELL", got["content"])
}

func TestNotifierContinuesPastFailingSender(t *testing.T) {
	bad := &recordingSender{name: "bad", err: errors.New("boom")}
	good := &recordingSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, discardLogger())

	err := n.Notify(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad: boom")
	assert.Equal(t, []string{"hello"}, good.delivered())
	assert.Equal(t, []string{"bad", "good"}, n.Senders())
}

func TestNotifierWithoutSenders(t *testing.T) {
	assert.NoError(t, NewNotifier(nil, discardLogger()).Notify(context.Background(), "x"))
}

func TestDispatcherDeliversConcurrentAlertsIntact(t *testing.T) {
	rec := &recordingSender{name: "rec"}
	d := NewDispatcher(NewNotifier([]Sender{rec}, discardLogger()), DispatcherConfig{
		QueueSize: 1024,
		Workers:   4,
	}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = d.Run(ctx)
		close(done)
	}()

	const conns, perConn = 8, 50
	want := make(map[string]bool, conns*perConn)
	var wg sync.WaitGroup
	for c := 0; c < conns; c++ {
		for i := 0; i < perConn; i++ {
			want[fmt.Sprintf("conn %d alert %d <b>payload</b>", c, i)] = true
		}
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			for i := 0; i < perConn; i++ {
				d.Dispatch(domain.Alert{Symbol: "X", Text: fmt.Sprintf("conn %d alert %d <b>payload</b>", c, i)})
			}
		}(c)
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return len(rec.delivered()) == conns*perConn
	}, 2*time.Second, 5*time.Millisecond)

	for _, text := range rec.delivered() {
		assert.True(t, want[text], "unexpected payload %q", text)
		delete(want, text)
	}
	assert.Empty(t, want)

	cancel()
	<-done
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	rec := &recordingSender{name: "rec"}
	d := NewDispatcher(NewNotifier([]Sender{rec}, discardLogger()), DispatcherConfig{QueueSize: 2}, discardLogger())

	// No workers running: the third alert has nowhere to go.
	d.Dispatch(domain.Alert{Text: "1"})
	d.Dispatch(domain.Alert{Text: "2"})
	d.Dispatch(domain.Alert{Text: "3"})
	assert.Len(t, d.queue, 2)
}

func TestDispatcherSurvivesSenderFailure(t *testing.T) {
	rec := &recordingSender{name: "flaky", err: errors.New("503")}
	d := NewDispatcher(NewNotifier([]Sender{rec}, discardLogger()), DispatcherConfig{Workers: 1}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()

	d.Dispatch(domain.Alert{Text: "a"})
	d.Dispatch(domain.Alert{Text: "b"})

	require.Eventually(t, func() bool { return len(rec.delivered()) == 2 }, time.Second, 5*time.Millisecond)
}
