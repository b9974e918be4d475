package companion

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/yanqian/gaptime-companion/internal/domain/appmessage"
	"github.com/yanqian/gaptime-companion/internal/domain/location"
	apperrors "github.com/yanqian/gaptime-companion/pkg/errors"
	"github.com/yanqian/gaptime-companion/pkg/metrics"
)

// Service reacts to device-originated events. Handlers never wait on the
// location fetch or on message delivery.
type Service interface {
	Run(ctx context.Context) error
	Ready(ctx context.Context) error
	ShowConfiguration(ctx context.Context) (string, error)
	WebviewClosed(ctx context.Context, response string) error
	AppMessage(ctx context.Context, payload appmessage.Payload) error
	Snapshot(ctx context.Context) (Snapshot, error)
}

// PositionAcquirer runs one location request.
type PositionAcquirer interface {
	Acquire(ctx context.Context) (location.Position, error)
}

// Config wires runtime settings for the companion domain.
type Config struct {
	AppVersion    string
	ConfigPageURL string
	SendTimeout   time.Duration
}

type eventKind int

const (
	eventReady eventKind = iota
	eventShowConfiguration
	eventWebviewClosed
	eventAppMessage
	eventSnapshot
	eventLocation
)

type event struct {
	kind     eventKind
	response string
	payload  appmessage.Payload
	position location.Position
	err      error
	reply    chan result
}

type result struct {
	url      string
	snapshot Snapshot
	err      error
}

type service struct {
	cfg        Config
	acquirer   PositionAcquirer
	translator *Translator
	sender     appmessage.Sender
	opener     appmessage.URLOpener
	logger     *slog.Logger

	session  Session
	delivery *metrics.Delivery
	events   chan event
	stopped  chan struct{}
	draining bool
	workCtx  context.Context
	inflight sync.WaitGroup
}

// NewService wires up the companion domain. opener may be nil when the
// transport cannot open web views; delivery may be nil when nobody reads the counters.
func NewService(cfg Config, acquirer PositionAcquirer, translator *Translator, sender appmessage.Sender, opener appmessage.URLOpener, delivery *metrics.Delivery, logger *slog.Logger) Service {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if delivery == nil {
		delivery = &metrics.Delivery{}
	}
	return &service{
		cfg:        cfg,
		acquirer:   acquirer,
		translator: translator,
		sender:     sender,
		opener:     opener,
		delivery:   delivery,
		logger:     logger.With("component", "companion.service"),
		events:     make(chan event),
		stopped:    make(chan struct{}),
	}
}

// Run owns the session until ctx is cancelled. On shutdown it stops accepting
// device events and finishes in-flight location requests and deliveries.
func (s *service) Run(ctx context.Context) error {
	s.workCtx = context.WithoutCancel(ctx)
	s.logger.Info("companion dispatcher started")
	for {
		select {
		case ev := <-s.events:
			s.dispatch(ev)
		case <-ctx.Done():
			s.drain()
			close(s.stopped)
			s.logger.Info("companion dispatcher stopped")
			return nil
		}
	}
}

func (s *service) drain() {
	s.draining = true
	idle := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(idle)
	}()
	for {
		select {
		case ev := <-s.events:
			s.dispatch(ev)
		case <-idle:
			return
		}
	}
}

func (s *service) Ready(ctx context.Context) error {
	_, err := s.submit(ctx, event{kind: eventReady})
	return err
}

func (s *service) ShowConfiguration(ctx context.Context) (string, error) {
	res, err := s.submit(ctx, event{kind: eventShowConfiguration})
	return res.url, err
}

func (s *service) WebviewClosed(ctx context.Context, response string) error {
	_, err := s.submit(ctx, event{kind: eventWebviewClosed, response: response})
	return err
}

func (s *service) AppMessage(ctx context.Context, payload appmessage.Payload) error {
	_, err := s.submit(ctx, event{kind: eventAppMessage, payload: payload})
	return err
}

func (s *service) Snapshot(ctx context.Context) (Snapshot, error) {
	res, err := s.submit(ctx, event{kind: eventSnapshot})
	return res.snapshot, err
}

func (s *service) submit(ctx context.Context, ev event) (result, error) {
	ev.reply = make(chan result, 1)
	select {
	case s.events <- ev:
	case <-s.stopped:
		return result{}, errStopped()
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
	select {
	case res := <-ev.reply:
		return res, res.err
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}

func (s *service) dispatch(ev event) {
	if ev.kind == eventLocation {
		s.onLocation(ev.position, ev.err)
		return
	}

	var res result
	switch {
	case s.draining && ev.kind != eventSnapshot:
		res.err = errStopped()
	case ev.kind == eventReady:
		s.logger.Info("device ready")
		s.requestLocation()
	case ev.kind == eventShowConfiguration:
		res.url, res.err = s.onShowConfiguration()
	case ev.kind == eventWebviewClosed:
		res.err = s.onWebviewClosed(ev.response)
	case ev.kind == eventAppMessage:
		s.onAppMessage(ev.payload)
	case ev.kind == eventSnapshot:
		res.snapshot = s.session.snapshot()
		res.snapshot.Deliveries = s.delivery.Counts()
	}
	ev.reply <- res
}

// requestLocation starts one position request. The result comes back through
// the event loop; the loop releases the in-flight slot once it is handled.
func (s *service) requestLocation() {
	s.inflight.Add(1)
	go func() {
		pos, err := s.acquirer.Acquire(s.workCtx)
		s.events <- event{kind: eventLocation, position: pos, err: err}
	}()
}

func (s *service) onLocation(pos location.Position, err error) {
	defer s.inflight.Done()

	if err != nil {
		locErr := location.AsError(err)
		s.delivery.LocationError()
		s.logger.Error("location error", "code", int(locErr.Code), "reason", locErr.Code.String(), "message", locErr.Message)
		return
	}
	s.logger.Info("position received", "lat", pos.Latitude, "lon", pos.Longitude, "accuracy", pos.Accuracy)

	times, err := s.translator.Translate(pos)
	if err != nil {
		s.logger.Error("sun times not computed", "lat", pos.Latitude, "lon", pos.Longitude, "error", err)
		return
	}
	s.session.SunTimes = times
	s.logger.Info("sun times computed",
		"sunrise", times.Sunrise.Format("15:04"),
		"sunset", times.Sunset.Format("15:04"),
		"invert_preference", string(s.session.Preference))

	s.send(SunTimesPayload(times, s.session.Preference), "sun times sent", "sun times delivery failed")
}

func (s *service) onShowConfiguration() (string, error) {
	target, err := ConfigurationURL(s.cfg.ConfigPageURL, s.cfg.AppVersion)
	if err != nil {
		return "", err
	}
	s.logger.Info("opening configuration page", "url", target)
	if s.opener == nil {
		return target, nil
	}
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(s.workCtx, s.cfg.SendTimeout)
		defer cancel()
		if err := s.opener.OpenURL(ctx, target); err != nil {
			s.logger.Warn("open configuration page failed", "url", target, "error", err)
		}
	}()
	return target, nil
}

func (s *service) onWebviewClosed(response string) error {
	if IsCancelled(response) {
		s.logger.Info("configuration cancelled")
		return nil
	}
	cfg, err := DecodeConfiguration(response)
	if err != nil {
		s.logger.Error("configuration dropped", "error", err)
		return err
	}
	s.logger.Info("configuration window returned", "configuration", cfg.String())

	s.session.Preference = cfg.InvertPreference()
	s.send(cfg.Payload(), "settings sent", "settings delivery failed")
	return nil
}

func (s *service) onAppMessage(payload appmessage.Payload) {
	s.logger.Info("app message received", "payload", payload)
	if payload.Has(appmessage.KeyUpdateSunTimes) {
		s.requestLocation()
	}
}

// send delivers payload in the background. Acknowledgement only affects logging.
func (s *service) send(payload appmessage.Payload, ackMsg, nackMsg string) {
	msg := appmessage.New(payload)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(s.workCtx, s.cfg.SendTimeout)
		defer cancel()
		if err := s.sender.Send(ctx, msg); err != nil {
			s.delivery.Nack()
			s.logger.Warn(nackMsg, "transaction_id", msg.TransactionID, "error", err)
			return
		}
		s.delivery.Ack()
		s.logger.Info(ackMsg, "transaction_id", msg.TransactionID)
	}()
}

func errStopped() error {
	return apperrors.Wrap(apperrors.CodeStopped, "companion is not accepting events", nil)
}
