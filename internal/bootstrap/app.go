package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/gaptime-companion/internal/domain/companion"
	"github.com/yanqian/gaptime-companion/internal/infra/config"
	"github.com/yanqian/gaptime-companion/internal/infra/device/mqtt"
)

const shutdownTimeout = 10 * time.Second

// EventSource delivers device events that arrive outside HTTP.
type EventSource interface {
	Subscribe(h mqtt.EventHandler, handleTimeout time.Duration) error
	Close()
}

// App owns the companion dispatcher, the HTTP server and the optional device event source.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	service companion.Service
	server  *http.Server
	events  EventSource
}

// NewApp is used by Wire to build the runnable app. events may be nil.
func NewApp(cfg *config.Config, logger *slog.Logger, service companion.Service, server *http.Server, events EventSource) *App {
	return &App{
		cfg:     cfg,
		logger:  logger.With("component", "bootstrap"),
		service: service,
		server:  server,
		events:  events,
	}
}

// Run starts every component and blocks until ctx is cancelled or the HTTP
// server fails. Shutdown stops intake first and lets the dispatcher finish
// in-flight deliveries before the device channel is closed.
func (a *App) Run(ctx context.Context) error {
	svcCtx, stopService := context.WithCancel(context.Background())
	defer stopService()

	svcDone := make(chan error, 1)
	go func() {
		svcDone <- a.service.Run(svcCtx)
	}()

	if a.events != nil {
		if err := a.events.Subscribe(a.service, a.cfg.Companion.SendTimeout); err != nil {
			stopService()
			<-svcDone
			a.events.Close()
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			runErr = err
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}

	stopService()
	if err := <-svcDone; err != nil && runErr == nil {
		runErr = err
	}
	if a.events != nil {
		a.events.Close()
	}
	a.logger.Info("shutdown complete")
	return runErr
}
