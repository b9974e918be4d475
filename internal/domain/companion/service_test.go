package companion

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/gaptime-companion/internal/domain/appmessage"
	"github.com/yanqian/gaptime-companion/internal/domain/location"
	"github.com/yanqian/gaptime-companion/internal/domain/suntimes"
	apperrors "github.com/yanqian/gaptime-companion/pkg/errors"
)

func TestReadySendsSunsetFirstWindowByDefault(t *testing.T) {
	h := newHarness(t)
	h.start()

	require.NoError(t, h.svc.Ready(context.Background()))
	h.stop()

	require.Equal(t, 1, h.acquirer.callCount())
	require.Equal(t, 1, h.calc.callCount())
	msgs := h.sender.sent()
	require.Len(t, msgs, 1)
	require.NotEmpty(t, msgs[0].TransactionID)
	require.Equal(t, appmessage.Payload{
		appmessage.KeyUpdateSunTimes:  1,
		appmessage.KeyInvertStartHour: 21,
		appmessage.KeyInvertStartMin:  21,
		appmessage.KeyInvertEndHour:   4,
		appmessage.KeyInvertEndMin:    43,
	}, msgs[0].Payload)
	require.Contains(t, h.logs(), "sun times sent")
}

func TestLocationErrorSendsNothing(t *testing.T) {
	h := newHarness(t)
	h.acquirer.err = &location.Error{Code: location.PositionUnavailable, Message: "position unavailable"}
	h.start()

	require.NoError(t, h.svc.Ready(context.Background()))

	// the dispatcher keeps serving events after the failure
	snap, err := h.svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.Nil(t, snap.SunTimes)
	h.stop()

	require.Empty(t, h.sender.sent())
	require.Equal(t, 0, h.calc.callCount())
	logs := h.logs()
	require.Equal(t, 1, strings.Count(logs, "level=ERROR"))
	require.Contains(t, logs, "code=2")
	require.Contains(t, logs, `reason="position unavailable"`)
	require.Contains(t, logs, `message="position unavailable"`)
}

func TestAppMessageTriggersRefreshOnlyWithMarker(t *testing.T) {
	h := newHarness(t)
	h.start()

	require.NoError(t, h.svc.AppMessage(context.Background(), appmessage.Payload{appmessage.KeyTextTime: "on"}))
	require.NoError(t, h.svc.AppMessage(context.Background(), appmessage.Payload{appmessage.KeyUpdateSunTimes: 1}))
	h.stop()

	require.Equal(t, 1, h.acquirer.callCount())
	require.Len(t, h.sender.sent(), 1)
}

func TestWebviewClosedRelaysConfigurationAndStoresPreference(t *testing.T) {
	h := newHarness(t)
	h.start()

	blob := url.PathEscape(`{"textTime":"24h","handOrder":"HMS","invert":"sunrise","invertStartMin":15,"invertStartHour":6,"invertEndMin":30,"invertEndHour":20}`)
	require.NoError(t, h.svc.WebviewClosed(context.Background(), blob))

	snap, err := h.svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, suntimes.PreferenceSunrise, snap.Preference)

	require.NoError(t, h.svc.Ready(context.Background()))
	h.stop()

	require.Equal(t, 1, h.acquirer.callCount())
	msgs := h.sender.sent()
	require.Len(t, msgs, 2)

	var settings, sun appmessage.Payload
	for _, m := range msgs {
		if m.Payload.Has(appmessage.KeyUpdateSunTimes) {
			sun = m.Payload
		} else {
			settings = m.Payload
		}
	}
	require.Equal(t, 6, settings[appmessage.KeyInvertStartHour])
	require.Equal(t, 15, settings[appmessage.KeyInvertStartMin])
	require.Equal(t, 20, settings[appmessage.KeyInvertEndHour])
	require.Equal(t, 30, settings[appmessage.KeyInvertEndMin])
	require.Equal(t, "24h", settings[appmessage.KeyTextTime])

	require.Equal(t, 4, sun[appmessage.KeyInvertStartHour])
	require.Equal(t, 21, sun[appmessage.KeyInvertEndHour])
}

func TestWebviewClosedDropsMalformedConfiguration(t *testing.T) {
	h := newHarness(t)
	h.start()

	err := h.svc.WebviewClosed(context.Background(), "%7B%22invert%22")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidConfiguration))
	require.NoError(t, h.svc.WebviewClosed(context.Background(), "CANCELLED"))
	h.stop()

	require.Empty(t, h.sender.sent())
	require.Contains(t, h.logs(), "configuration dropped")
	require.Contains(t, h.logs(), "configuration cancelled")
}

func TestDeliveryFailureIsOnlyLogged(t *testing.T) {
	h := newHarness(t)
	h.sender.err = errors.New("nack")
	h.start()

	require.NoError(t, h.svc.Ready(context.Background()))
	require.NoError(t, h.svc.AppMessage(context.Background(), appmessage.Payload{appmessage.KeyUpdateSunTimes: 1}))
	h.stop()

	require.Equal(t, 2, h.acquirer.callCount())
	require.Len(t, h.sender.sent(), 2)
	require.Equal(t, 2, strings.Count(h.logs(), "sun times delivery failed"))
}

func TestSnapshotReportsDeliveryCounts(t *testing.T) {
	h := newHarness(t)
	h.start()
	defer h.stop()

	require.NoError(t, h.svc.Ready(context.Background()))
	require.Eventually(t, func() bool {
		snap, err := h.svc.Snapshot(context.Background())
		return err == nil && snap.Deliveries.Acked == 1
	}, 2*time.Second, 10*time.Millisecond)

	snap, err := h.svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap.SunTimes)
	require.NotNil(t, snap.Window)
	require.Zero(t, snap.Deliveries.Nacked)
	require.Zero(t, snap.Deliveries.LocationErrors)
}

func TestShowConfigurationOpensVersionedURL(t *testing.T) {
	h := newHarness(t)
	h.start()

	target, err := h.svc.ShowConfiguration(context.Background())
	require.NoError(t, err)
	h.stop()

	require.Equal(t, "http://geekjosh.github.io/Pebble-Gaptime/appconfig.html?version=1.4", target)
	require.Equal(t, []string{target}, h.opener.opened())
	require.Equal(t, 0, h.acquirer.callCount())
}

func TestEventsAfterStopAreRejected(t *testing.T) {
	h := newHarness(t)
	h.start()
	h.stop()

	err := h.svc.Ready(context.Background())
	require.True(t, apperrors.IsCode(err, apperrors.CodeStopped))
	require.Equal(t, 0, h.acquirer.callCount())
}

func TestSubmitHonorsCallerContext(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	// no dispatcher running
	err := h.svc.Ready(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

type harness struct {
	t        *testing.T
	svc      *service
	acquirer *stubAcquirer
	calc     *stubCalculator
	sender   *stubSender
	opener   *stubOpener
	logBuf   *syncBuffer
	cancel   context.CancelFunc
	done     chan error
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		acquirer: &stubAcquirer{pos: location.Position{Latitude: 51.5, Longitude: -0.12}},
		calc:     &stubCalculator{times: londonMidsummer()},
		sender:   &stubSender{},
		opener:   &stubOpener{},
		logBuf:   &syncBuffer{},
	}
	translator := NewTranslator(h.calc, time.FixedZone("BST", 3600))
	translator.now = func() time.Time { return time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC) }
	logger := slog.New(slog.NewTextHandler(h.logBuf, nil))
	h.svc = NewService(Config{
		AppVersion:    "1.4",
		ConfigPageURL: "http://geekjosh.github.io/Pebble-Gaptime/appconfig.html",
		SendTimeout:   time.Second,
	}, h.acquirer, translator, h.sender, h.opener, nil, logger).(*service)
	return h
}

func (h *harness) start() {
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.done = make(chan error, 1)
	go func() { h.done <- h.svc.Run(ctx) }()
}

func (h *harness) stop() {
	h.t.Helper()
	h.cancel()
	select {
	case err := <-h.done:
		require.NoError(h.t, err)
	case <-time.After(2 * time.Second):
		h.t.Fatal("dispatcher did not stop")
	}
}

func (h *harness) logs() string {
	return h.logBuf.String()
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type stubAcquirer struct {
	mu    sync.Mutex
	pos   location.Position
	err   error
	calls int
}

func (s *stubAcquirer) Acquire(context.Context) (location.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.pos, s.err
}

func (s *stubAcquirer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubCalculator struct {
	mu       sync.Mutex
	times    suntimes.Times
	err      error
	calls    int
	lastDate time.Time
	lastLat  float64
	lastLon  float64
}

func (s *stubCalculator) Compute(date time.Time, lat, lon float64) (suntimes.Times, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastDate, s.lastLat, s.lastLon = date, lat, lon
	return s.times, s.err
}

func (s *stubCalculator) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubSender struct {
	mu   sync.Mutex
	msgs []appmessage.Message
	err  error
}

func (s *stubSender) Send(_ context.Context, msg appmessage.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return s.err
}

func (s *stubSender) sent() []appmessage.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]appmessage.Message(nil), s.msgs...)
}

type stubOpener struct {
	mu   sync.Mutex
	urls []string
}

func (s *stubOpener) OpenURL(_ context.Context, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = append(s.urls, target)
	return nil
}

func (s *stubOpener) opened() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.urls...)
}
