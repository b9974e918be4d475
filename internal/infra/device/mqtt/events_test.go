package mqtt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/gaptime-companion/internal/domain/appmessage"
)

func TestDecodeEvent(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"type":"appmessage","payload":{"KEY_UPDATE_SUNTIMES":1}}`))
	require.NoError(t, err)
	require.Equal(t, EventAppMessage, ev.Type)
	require.True(t, ev.Payload.Has(appmessage.KeyUpdateSunTimes))

	ev, err = DecodeEvent([]byte(`{"type":"webviewclosed","response":"%7B%7D"}`))
	require.NoError(t, err)
	require.Equal(t, "%7B%7D", ev.Response)

	_, err = DecodeEvent([]byte(`{"type":"reboot"}`))
	require.Error(t, err)

	_, err = DecodeEvent([]byte(`not json`))
	require.Error(t, err)
}

func TestDispatchRoutesEvents(t *testing.T) {
	h := &recordingHandler{}
	ctx := context.Background()

	require.NoError(t, Dispatch(ctx, h, Event{Type: EventReady}))
	require.NoError(t, Dispatch(ctx, h, Event{Type: EventShowConfiguration}))
	require.NoError(t, Dispatch(ctx, h, Event{Type: EventWebviewClosed, Response: "CANCELLED"}))
	require.NoError(t, Dispatch(ctx, h, Event{Type: EventAppMessage}))
	require.Error(t, Dispatch(ctx, h, Event{Type: "bogus"}))

	require.Equal(t, []string{"ready", "showConfiguration", "webviewclosed:CANCELLED", "appmessage"}, h.calls)
	require.NotNil(t, h.lastPayload)
}

type recordingHandler struct {
	calls       []string
	lastPayload appmessage.Payload
}

func (r *recordingHandler) Ready(context.Context) error {
	r.calls = append(r.calls, "ready")
	return nil
}

func (r *recordingHandler) ShowConfiguration(context.Context) (string, error) {
	r.calls = append(r.calls, "showConfiguration")
	return "https://example.com", nil
}

func (r *recordingHandler) WebviewClosed(_ context.Context, response string) error {
	r.calls = append(r.calls, "webviewclosed:"+response)
	return nil
}

func (r *recordingHandler) AppMessage(_ context.Context, payload appmessage.Payload) error {
	r.calls = append(r.calls, "appmessage")
	r.lastPayload = payload
	return nil
}
