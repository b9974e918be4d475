package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yanqian/gaptime-companion/internal/domain/appmessage"
)

// Event types published by the phone side.
const (
	EventReady             = "ready"
	EventShowConfiguration = "showConfiguration"
	EventWebviewClosed     = "webviewclosed"
	EventAppMessage        = "appmessage"
)

// Event is one device-originated notification.
type Event struct {
	Type     string             `json:"type"`
	Response string             `json:"response,omitempty"`
	Payload  appmessage.Payload `json:"payload,omitempty"`
}

// EventHandler receives decoded device events.
type EventHandler interface {
	Ready(ctx context.Context) error
	ShowConfiguration(ctx context.Context) (string, error)
	WebviewClosed(ctx context.Context, response string) error
	AppMessage(ctx context.Context, payload appmessage.Payload) error
}

// DecodeEvent parses an event envelope.
func DecodeEvent(body []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, fmt.Errorf("decode device event: %w", err)
	}
	switch ev.Type {
	case EventReady, EventShowConfiguration, EventWebviewClosed, EventAppMessage:
		return ev, nil
	default:
		return Event{}, fmt.Errorf("unknown device event type %q", ev.Type)
	}
}

// Dispatch routes ev to the matching handler method.
func Dispatch(ctx context.Context, h EventHandler, ev Event) error {
	switch ev.Type {
	case EventReady:
		return h.Ready(ctx)
	case EventShowConfiguration:
		_, err := h.ShowConfiguration(ctx)
		return err
	case EventWebviewClosed:
		return h.WebviewClosed(ctx, ev.Response)
	case EventAppMessage:
		if ev.Payload == nil {
			ev.Payload = appmessage.Payload{}
		}
		return h.AppMessage(ctx, ev.Payload)
	default:
		return fmt.Errorf("unknown device event type %q", ev.Type)
	}
}
