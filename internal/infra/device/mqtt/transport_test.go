package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/gaptime-companion/internal/domain/appmessage"
)

func TestSendPublishesEnvelope(t *testing.T) {
	client := &fakeClient{token: doneToken(nil)}
	tr := NewTransport(client, Config{TopicPrefix: "watch/42/", QoS: 1}, newTestLogger())

	msg := appmessage.New(appmessage.Payload{appmessage.KeyUpdateSunTimes: 1, appmessage.KeyInvertStartHour: 21})
	require.NoError(t, tr.Send(context.Background(), msg))

	require.Equal(t, "watch/42/appmessage", client.topic)
	require.Equal(t, byte(1), client.qos)
	var got struct {
		TransactionID string         `json:"transactionId"`
		Payload       map[string]int `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(client.body, &got))
	require.Equal(t, msg.TransactionID, got.TransactionID)
	require.Equal(t, 21, got.Payload[appmessage.KeyInvertStartHour])
}

func TestSendReportsBrokerError(t *testing.T) {
	client := &fakeClient{token: doneToken(errors.New("not connected"))}
	tr := NewTransport(client, Config{}, newTestLogger())

	err := tr.Send(context.Background(), appmessage.New(appmessage.Payload{}))
	require.EqualError(t, err, "not connected")
	require.Equal(t, "gaptime/appmessage", client.topic)
}

func TestSendTimesOut(t *testing.T) {
	client := &fakeClient{token: &fakeToken{done: make(chan struct{})}}
	tr := NewTransport(client, Config{}, newTestLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := tr.Send(ctx, appmessage.New(appmessage.Payload{}))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOpenURLPublishesAction(t *testing.T) {
	client := &fakeClient{token: doneToken(nil)}
	tr := NewTransport(client, Config{}, newTestLogger())

	require.NoError(t, tr.OpenURL(context.Background(), "https://example.com/config?version=1.4"))
	require.Equal(t, "gaptime/action", client.topic)
	require.JSONEq(t, `{"action":"openURL","url":"https://example.com/config?version=1.4"}`, string(client.body))
}

type fakeClient struct {
	paho.Client
	token paho.Token
	topic string
	qos   byte
	body  []byte
}

func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) paho.Token {
	c.topic = topic
	c.qos = qos
	c.body, _ = payload.([]byte)
	return c.token
}

type fakeToken struct {
	done chan struct{}
	err  error
}

func doneToken(err error) *fakeToken {
	done := make(chan struct{})
	close(done)
	return &fakeToken{done: done, err: err}
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }

func (t *fakeToken) Error() error { return t.err }

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
