package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/gaptime-companion/internal/domain/appmessage"
	"github.com/yanqian/gaptime-companion/internal/domain/companion"
	"github.com/yanqian/gaptime-companion/internal/infra/config"
	"github.com/yanqian/gaptime-companion/internal/infra/device/mqtt"
)

func TestApp_RunStopsEverythingOnCancel(t *testing.T) {
	svc := &stubService{started: make(chan struct{})}
	events := &stubEvents{}
	app := newTestApp(svc, events)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case <-svc.started:
	case <-time.After(2 * time.Second):
		t.Fatal("companion service was not started")
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	require.True(t, svc.isStopped())
	require.True(t, events.subscribed)
	require.True(t, events.closed)
	require.Same(t, svc, events.handler)
}

func TestApp_RunReturnsSubscribeError(t *testing.T) {
	svc := &stubService{started: make(chan struct{})}
	events := &stubEvents{err: errors.New("broker unavailable")}
	app := newTestApp(svc, events)

	err := app.Run(context.Background())
	require.ErrorContains(t, err, "broker unavailable")
	require.True(t, svc.isStopped())
	require.True(t, events.closed)
}

func TestApp_RunWithoutEventSource(t *testing.T) {
	svc := &stubService{started: make(chan struct{})}
	app := newTestApp(svc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	<-svc.started
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}

func newTestApp(svc companion.Service, events EventSource) *App {
	cfg := &config.Config{
		HTTP:      config.HTTPConfig{Address: "127.0.0.1:0"},
		Companion: config.CompanionConfig{SendTimeout: time.Second},
	}
	server := &http.Server{Addr: cfg.HTTP.Address, Handler: http.NotFoundHandler()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewApp(cfg, logger, svc, server, events)
}

type stubService struct {
	mu      sync.Mutex
	started chan struct{}
	stopped bool
}

func (s *stubService) Run(ctx context.Context) error {
	close(s.started)
	<-ctx.Done()
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	return nil
}

func (s *stubService) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *stubService) Ready(context.Context) error { return nil }

func (s *stubService) ShowConfiguration(context.Context) (string, error) { return "", nil }

func (s *stubService) WebviewClosed(context.Context, string) error { return nil }

func (s *stubService) AppMessage(context.Context, appmessage.Payload) error { return nil }

func (s *stubService) Snapshot(context.Context) (companion.Snapshot, error) {
	return companion.Snapshot{}, nil
}

type stubEvents struct {
	err        error
	handler    mqtt.EventHandler
	subscribed bool
	closed     bool
}

func (s *stubEvents) Subscribe(h mqtt.EventHandler, _ time.Duration) error {
	if s.err != nil {
		return s.err
	}
	s.handler = h
	s.subscribed = true
	return nil
}

func (s *stubEvents) Close() { s.closed = true }
