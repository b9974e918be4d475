package appmessage

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Payload is the flat dictionary exchanged with the watch. Values are either
// strings or integers.
type Payload map[string]any

// Has reports whether key is present, whatever its value.
func (p Payload) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Message is one outbound delivery to the device.
type Message struct {
	TransactionID string  `json:"transactionId"`
	Payload       Payload `json:"payload"`
}

// New stamps a payload with a fresh transaction id.
func New(payload Payload) Message {
	return Message{TransactionID: uuid.NewString(), Payload: payload}
}

// Sender delivers a message and returns once the device acknowledged it.
// A non-nil error is a negative acknowledgement.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// URLOpener asks the phone-side runtime to open an external web view.
type URLOpener interface {
	OpenURL(ctx context.Context, url string) error
}

// Scalar normalises a decoded JSON value into a payload value. Integral numbers
// become int, strings stay strings, booleans map to 1/0. Anything else is rejected.
func Scalar(v any) (any, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case bool:
		if val {
			return 1, nil
		}
		return 0, nil
	case int:
		return val, nil
	case float64:
		return wholeNumber(val, val)
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return int(i), nil
		}
		// 15.0 and 1e1 are whole numbers too.
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %s: %w", val.String(), err)
		}
		return wholeNumber(f, val)
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func wholeNumber(f float64, raw any) (any, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return nil, fmt.Errorf("non-integral number %v", raw)
	}
	return int(f), nil
}
