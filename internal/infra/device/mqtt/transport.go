package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/yanqian/gaptime-companion/internal/domain/appmessage"
)

// Config describes the broker connection and topic layout.
type Config struct {
	Broker         string
	ClientID       string
	TopicPrefix    string
	QoS            byte
	ConnectTimeout time.Duration
}

// Transport is the device messaging channel over an MQTT broker. The phone
// side bridges the topics to the watch.
type Transport struct {
	client paho.Client
	cfg    Config
	logger *slog.Logger
}

// Dial connects to the broker.
func Dial(cfg Config, logger *slog.Logger) (*Transport, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.ConnectTimeout)
	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s: timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}
	return NewTransport(client, cfg, logger), nil
}

// NewTransport wraps an already connected client.
func NewTransport(client paho.Client, cfg Config, logger *slog.Logger) *Transport {
	cfg.TopicPrefix = strings.TrimRight(cfg.TopicPrefix, "/")
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "gaptime"
	}
	return &Transport{
		client: client,
		cfg:    cfg,
		logger: logger.With("component", "device.mqtt"),
	}
}

// Send publishes the message and waits for the broker to acknowledge it.
func (t *Transport) Send(ctx context.Context, msg appmessage.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode app message: %w", err)
	}
	return t.publish(ctx, t.topic("appmessage"), body)
}

// OpenURL asks the phone side to open a web view.
func (t *Transport) OpenURL(ctx context.Context, url string) error {
	body, err := json.Marshal(action{Action: "openURL", URL: url})
	if err != nil {
		return fmt.Errorf("encode action: %w", err)
	}
	return t.publish(ctx, t.topic("action"), body)
}

// Subscribe feeds device events into h until the transport is closed.
func (t *Transport) Subscribe(h EventHandler, handleTimeout time.Duration) error {
	if handleTimeout <= 0 {
		handleTimeout = 5 * time.Second
	}
	topic := t.topic("events")
	token := t.client.Subscribe(topic, t.cfg.QoS, func(_ paho.Client, m paho.Message) {
		ev, err := DecodeEvent(m.Payload())
		if err != nil {
			t.logger.Warn("device event dropped", "topic", m.Topic(), "error", err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
		defer cancel()
		if err := Dispatch(ctx, h, ev); err != nil {
			t.logger.Warn("device event failed", "type", ev.Type, "error", err)
		}
	})
	if !token.WaitTimeout(t.cfg.ConnectTimeout) {
		return fmt.Errorf("mqtt subscribe %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", topic, err)
	}
	t.logger.Info("subscribed to device events", "topic", topic)
	return nil
}

// Close disconnects after letting in-flight publishes finish.
func (t *Transport) Close() {
	t.client.Disconnect(250)
}

func (t *Transport) publish(ctx context.Context, topic string, body []byte) error {
	token := t.client.Publish(topic, t.cfg.QoS, false, body)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return fmt.Errorf("publish %s: %w", topic, ctx.Err())
	}
}

func (t *Transport) topic(name string) string {
	return t.cfg.TopicPrefix + "/" + name
}

type action struct {
	Action string `json:"action"`
	URL    string `json:"url"`
}

var (
	_ appmessage.Sender    = (*Transport)(nil)
	_ appmessage.URLOpener = (*Transport)(nil)
)
